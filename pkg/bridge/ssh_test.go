package bridge

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// startSSHServer accepts password "secret" for any user and answers exec
// requests: "fail" exits with status 1, everything else echoes the command.
func startSSHServer(t *testing.T) (string, ssh.PublicKey) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	cfg := &ssh.ServerConfig{
		PasswordCallback: func(_ ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if string(password) == "secret" {
				return nil, nil
			}
			return nil, errors.New("denied")
		},
	}
	cfg.AddHostKey(signer)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go serveSSHConn(conn, cfg)
		}
	}()

	return l.Addr().String(), signer.PublicKey()
}

func serveSSHConn(conn net.Conn, cfg *ssh.ServerConfig) {
	_, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		return
	}
	go ssh.DiscardRequests(reqs)

	for nc := range chans {
		if nc.ChannelType() != "session" {
			_ = nc.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		ch, requests, err := nc.Accept()
		if err != nil {
			continue
		}
		go func() {
			defer ch.Close()
			for req := range requests {
				if req.Type != "exec" {
					_ = req.Reply(false, nil)
					continue
				}
				var payload struct{ Command string }
				_ = ssh.Unmarshal(req.Payload, &payload)
				_ = req.Reply(true, nil)

				status := uint32(0)
				if payload.Command == "fail" {
					_, _ = ch.Stderr().Write([]byte("boom\n"))
					status = 1
				} else {
					_, _ = ch.Write([]byte("ran " + payload.Command + "\n"))
				}
				_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
				return
			}
		}()
	}
}

func writeKnownHosts(t *testing.T, addr string, key ssh.PublicKey) string {
	path := filepath.Join(t.TempDir(), "known_hosts")
	require.NoError(t, os.WriteFile(path, []byte(knownhosts.Line([]string{addr}, key)+"\n"), 0o600))
	return path
}

func TestSSHTransportRunsCommands(t *testing.T) {
	addr, hostKey := startSSHServer(t)

	transport, err := NewSSHTransport(writeKnownHosts(t, addr, hostKey), false, 5*time.Second)
	require.NoError(t, err)

	b := New(WithRemoteTransport(transport))
	out, err := b.RemoteCommand(context.Background(), addr, "monitor", "secret", []string{"uptime", "fail", "df"})
	require.NoError(t, err)

	assert.Contains(t, out, "ran uptime\n")
	assert.Contains(t, out, "boom\n[command failed: fail: ")
	assert.Contains(t, out, "ran df\n")
}

func TestSSHTransportWrongPassword(t *testing.T) {
	addr, hostKey := startSSHServer(t)

	transport, err := NewSSHTransport(writeKnownHosts(t, addr, hostKey), false, 5*time.Second)
	require.NoError(t, err)

	_, err = New(WithRemoteTransport(transport)).RemoteCommand(context.Background(), "ssh://"+addr, "monitor", "wrong", []string{"uptime"})

	var cerr *ConnectionError
	require.True(t, errors.As(err, &cerr), "expected ConnectionError, got %v", err)
	assert.Equal(t, "ssh", cerr.Protocol)
}

func TestSSHTransportUnknownHostKey(t *testing.T) {
	addr, _ := startSSHServer(t)
	_, otherKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	otherSigner, err := ssh.NewSignerFromKey(otherKey)
	require.NoError(t, err)

	transport, err := NewSSHTransport(writeKnownHosts(t, addr, otherSigner.PublicKey()), false, 5*time.Second)
	require.NoError(t, err)

	_, err = New(WithRemoteTransport(transport)).RemoteCommand(context.Background(), addr, "monitor", "secret", []string{"uptime"})

	var cerr *ConnectionError
	assert.True(t, errors.As(err, &cerr))
}

func TestNewSSHTransportRequiresHostKeyPolicy(t *testing.T) {
	_, err := NewSSHTransport("", false, 0)
	assert.Error(t, err)

	transport, err := NewSSHTransport("", true, 0)
	require.NoError(t, err)
	assert.Equal(t, "ssh", transport.Protocol())
}
