package connector

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
)

const defaultSSHPort = "22"

// SSHConnector opens SSH sessions to devices. Network devices commonly
// present ancient host keys, so verification is disabled; the inventory
// network is assumed to be a management network.
type SSHConnector struct {
	// CommandTimeout bounds a single command execution, distinct from
	// the dial timeout passed to Open.
	CommandTimeout time.Duration
}

// NewSSH creates an SSH connector
func NewSSH(commandTimeout time.Duration) *SSHConnector {
	if commandTimeout <= 0 {
		commandTimeout = 30 * time.Second
	}
	return &SSHConnector{CommandTimeout: commandTimeout}
}

// Open dials addr and authenticates with creds. addr may omit the port.
func (c *SSHConnector) Open(ctx context.Context, addr string, creds Credentials, timeout time.Duration) (Session, error) {
	config, err := buildClientConfig(creds)
	if err != nil {
		return nil, fmt.Errorf("build ssh config: %w", err)
	}
	config.Timeout = timeout

	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, defaultSSHPort)
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}

	return &sshSession{
		client:  ssh.NewClient(sshConn, chans, reqs),
		timeout: c.CommandTimeout,
	}, nil
}

func buildClientConfig(creds Credentials) (*ssh.ClientConfig, error) {
	if creds.Username == "" {
		return nil, fmt.Errorf("credentials missing username")
	}

	var auth []ssh.AuthMethod
	if creds.PrivateKey != "" {
		var (
			signer ssh.Signer
			err    error
		)
		if creds.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase([]byte(creds.PrivateKey), []byte(creds.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey([]byte(creds.PrivateKey))
		}
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if creds.Password != "" {
		auth = append(auth, ssh.Password(creds.Password))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("credentials carry no password or key")
	}

	return &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}, nil
}

type sshSession struct {
	client  *ssh.Client
	timeout time.Duration
}

// Run executes one command in a fresh exec session. A non-zero exit
// status still yields the output: devices reject individual commands
// without invalidating the connection.
func (s *sshSession) Run(ctx context.Context, command string) (string, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("open exec session: %w", err)
	}
	defer sess.Close()

	type result struct {
		output []byte
		err    error
	}
	done := make(chan result, 1)
	go func() {
		out, err := sess.CombinedOutput(command)
		done <- result{out, err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			if _, ok := res.err.(*ssh.ExitError); ok {
				return string(res.output), nil
			}
			return "", fmt.Errorf("run %q: %w", command, res.err)
		}
		return string(res.output), nil
	case <-ctx.Done():
		_ = sess.Signal(ssh.SIGKILL)
		return "", ctx.Err()
	case <-timer.C:
		_ = sess.Signal(ssh.SIGKILL)
		return "", fmt.Errorf("run %q: command timeout after %s", command, s.timeout)
	}
}

func (s *sshSession) Close() error {
	return s.client.Close()
}
