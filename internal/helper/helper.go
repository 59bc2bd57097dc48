package helper

import (
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// ResolveEnv replaces values of the form "ENV:NAME" by the content of the
// environment variable NAME.
func ResolveEnv(in string) string {
	if strings.HasPrefix(in, "ENV:") {
		return os.Getenv(in[4:])
	}
	return in
}

func SetDefaultPort(port string, defaultPort string) string {
	if len(port) == 0 {
		log.Infof("No port specified or env variable not found, assuming default port %s", defaultPort)
		return defaultPort
	}
	return port
}

func SetDefaultStringIfEmpty(in, defaultValue, field, kind string) string {
	if len(in) == 0 {
		log.WithFields(log.Fields{"kind": kind, "field": field}).Debugf("no value given, assuming default %q", defaultValue)
		return defaultValue
	}
	return in
}

// ParseDurationOrDefault parses in after resolving it from the environment.
// An empty value yields defaultValue.
func ParseDurationOrDefault(in string, defaultValue time.Duration) (time.Duration, error) {
	in = ResolveEnv(in)
	if in == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(in)
}
