package bridge

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const defaultSSHPort = "22"

// SSHTransport runs remote commands over SSH. The secret passed to Open is
// used as a PEM encoded private key if it looks like one, and as a password
// otherwise.
type SSHTransport struct {
	hostKeyCallback ssh.HostKeyCallback
	timeout         time.Duration
}

// NewSSHTransport verifies host keys against knownHostsFile. Host key checking
// is only skipped when insecure is set explicitly.
func NewSSHTransport(knownHostsFile string, insecure bool, timeout time.Duration) (*SSHTransport, error) {
	t := &SSHTransport{timeout: timeout}
	if t.timeout <= 0 {
		t.timeout = DefaultTimeout
	}

	switch {
	case knownHostsFile != "":
		cb, err := knownhosts.New(knownHostsFile)
		if err != nil {
			return nil, errors.Wrapf(err, "could not load known hosts from %s", knownHostsFile)
		}
		t.hostKeyCallback = cb
	case insecure:
		t.hostKeyCallback = ssh.InsecureIgnoreHostKey()
	default:
		return nil, errors.New("ssh transport requires a known hosts file unless host key checking is disabled")
	}

	return t, nil
}

func (t *SSHTransport) Protocol() string {
	return "ssh"
}

func (t *SSHTransport) Open(ctx context.Context, host, user, secret string) (RemoteSession, error) {
	auth, err := sshAuthMethod(secret)
	if err != nil {
		return nil, err
	}

	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, defaultSSHPort)
	}

	cfg := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: t.hostKeyCallback,
		Timeout:         t.timeout,
	}

	dialer := net.Dialer{Timeout: t.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})

	return &sshSession{client: ssh.NewClient(c, chans, reqs)}, nil
}

func sshAuthMethod(secret string) (ssh.AuthMethod, error) {
	if strings.Contains(secret, "-----BEGIN") {
		signer, err := ssh.ParsePrivateKey([]byte(secret))
		if err != nil {
			return nil, errors.Wrap(err, "could not parse private key")
		}
		return ssh.PublicKeys(signer), nil
	}
	return ssh.Password(secret), nil
}

type sshSession struct {
	client *ssh.Client
}

func (s *sshSession) Run(ctx context.Context, command string) (string, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return "", err
	}
	defer func() { _ = session.Close() }()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = session.Close()
		case <-done:
		}
	}()

	out, err := session.CombinedOutput(command)
	if err != nil && ctx.Err() != nil {
		return string(out), ctx.Err()
	}
	return string(out), err
}

func (s *sshSession) Close() error {
	return s.client.Close()
}
