package bridge

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// RemoteTransport opens authenticated command sessions for one protocol.
type RemoteTransport interface {
	Protocol() string
	Open(ctx context.Context, host, user, secret string) (RemoteSession, error)
}

type RemoteSession interface {
	Run(ctx context.Context, command string) (string, error)
	Close() error
}

// RemoteCommand runs commands in order on host and returns their combined
// output. A failing command does not stop the sequence; a marker line is
// appended for it instead. The protocol is taken from a "proto://" prefix of
// host and falls back to the default transport.
func (b *Bridge) RemoteCommand(ctx context.Context, host, user, secret string, commands []string) (string, error) {
	protocol, addr := splitRemoteHost(host, b.defaultRemote)

	transport, ok := b.remotes[protocol]
	if !ok {
		return "", &TransportError{
			Op:     "remote_command",
			Target: host,
			Err:    fmt.Errorf("no remote transport registered for protocol %q", protocol),
		}
	}

	openCtx, cancel := context.WithTimeout(ctx, b.timeout)
	session, err := transport.Open(openCtx, addr, user, secret)
	cancel()
	if err != nil {
		return "", &TransportError{
			Op:     "remote_command",
			Target: host,
			Err:    &ConnectionError{Protocol: protocol, Host: addr, Err: err},
		}
	}
	defer func() { _ = session.Close() }()

	var out strings.Builder
	for _, command := range commands {
		runCtx, cancel := context.WithTimeout(ctx, b.timeout)
		output, err := session.Run(runCtx, command)
		cancel()

		out.WriteString(output)
		if err != nil {
			log.WithFields(log.Fields{"kind": "bridge", "protocol": protocol, "host": addr, "command": command}).WithError(err).Debug("remote command failed")
			if output != "" && !strings.HasSuffix(output, "\n") {
				out.WriteString("\n")
			}
			fmt.Fprintf(&out, "[command failed: %s: %v]\n", command, err)
		}
	}

	return out.String(), nil
}

func splitRemoteHost(host, defaultProtocol string) (string, string) {
	if i := strings.Index(host, "://"); i >= 0 {
		return host[:i], host[i+3:]
	}
	return defaultProtocol, host
}
