// Package connector provides the device transport: opening an
// authenticated session to a network device and running CLI commands over
// it. The engine only sees the Connector and Session interfaces, so tests
// substitute a scripted transport.
package connector

import (
	"context"
	"time"
)

// Credentials authenticate a session. Password auth is the norm for
// network gear; a private key is used when present.
type Credentials struct {
	Username   string
	Password   string
	PrivateKey string
	Passphrase string
}

// Session is one open connection to a device
type Session interface {
	// Run executes a single command and returns its raw output
	Run(ctx context.Context, command string) (string, error)
	// Close releases the connection
	Close() error
}

// Connector opens sessions to devices by address
type Connector interface {
	Open(ctx context.Context, addr string, creds Credentials, timeout time.Duration) (Session, error)
}
