package probe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mittwald/mittcheck/internal/config"
	"github.com/mittwald/mittcheck/internal/helper"
	log "github.com/sirupsen/logrus"
)

type httpProbe struct {
	client  *http.Client
	method  string
	url     string
	payload string
	headers map[string]string
	timeout time.Duration
	status  *regexp.Regexp
}

func NewHttpProbe(cfg *config.HTTP) (*httpProbe, error) {
	method := helper.SetDefaultStringIfEmpty(helper.ResolveEnv(cfg.Method), "GET", "method", "http")
	scheme := helper.SetDefaultStringIfEmpty(helper.ResolveEnv(cfg.Scheme), "http", "scheme", "http")
	hostname := helper.ResolveEnv(cfg.Hostname)
	port := helper.ResolveEnv(cfg.Port)
	timeoutStr := helper.SetDefaultStringIfEmpty(helper.ResolveEnv(cfg.Timeout), "5s", "timeout", "http")
	expectStatus := helper.SetDefaultStringIfEmpty(helper.ResolveEnv(cfg.ExpectStatus), `(1|2|3)\d\d\s`, "expectStatus", "http")

	host := hostname
	if port != "" {
		host = net.JoinHostPort(hostname, port)
	}

	status, err := regexp.Compile(expectStatus)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP status line regexp: %w", err)
	}

	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration: %w", err)
	}

	u := url.URL{
		Scheme: scheme,
		Host:   host,
		Path:   helper.ResolveEnv(cfg.Path),
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = helper.ResolveEnv(v)
	}

	return &httpProbe{
		client:  &http.Client{},
		method:  strings.ToUpper(method),
		url:     u.String(),
		status:  status,
		timeout: timeout,
		payload: helper.ResolveEnv(cfg.Payload),
		headers: headers,
	}, nil
}

func (h *httpProbe) Exec(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, h.method, h.url, strings.NewReader(h.payload))
	if err != nil {
		return err
	}

	for k, v := range h.headers {
		req.Header.Set(k, v)
	}

	res, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<20))

	if !h.status.MatchString(res.Status) {
		return fmt.Errorf("http service %q returned status %q", h.url, res.Status)
	}

	log.WithFields(log.Fields{"kind": "probe", "name": "http", "status": "alive", "host": h.url}).Debug()
	return nil
}
