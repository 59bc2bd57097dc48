package cmd

import (
	"net"
	"net/http"
	"net/http/pprof"

	log "github.com/sirupsen/logrus"
)

func serveProfiler(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	for name, handler := range map[string]http.HandlerFunc{
		"cmdline": pprof.Cmdline,
		"profile": pprof.Profile,
		"symbol":  pprof.Symbol,
		"trace":   pprof.Trace,
	} {
		mux.HandleFunc("/debug/pprof/"+name, handler)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.WithError(err).Error("pprof server failed to listen")
		return
	}

	log.WithField("addr", listener.Addr().String()).Info("serving pprof on /debug/pprof/")
	if err := http.Serve(listener, mux); err != nil {
		log.WithError(err).Error("pprof server stopped")
	}
}
