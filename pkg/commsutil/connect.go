// Package commsutil provides COMMS (NATS) connection helpers, subjects and the JSON codec.
package commsutil

import (
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"
)

const logPrefix = "commsutil:connect"

const (
	defaultConnectTimeout = 10 * time.Second
	defaultMaxReconnects  = 60
	reconnectWait         = 2 * time.Second
)

// ConnectOptions tunes Connect. Zero values use defaults.
type ConnectOptions struct {
	Name          string
	Timeout       time.Duration
	MaxReconnects int
}

// Connect creates a COMMS connection to the given URL.
func Connect(url string, opts ConnectOptions) (*comms.Conn, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultConnectTimeout
	}
	if opts.MaxReconnects == 0 {
		opts.MaxReconnects = defaultMaxReconnects
	}
	slog.Info(fmt.Sprintf("%s - Connecting to COMMS at %s as %s", logPrefix, url, opts.Name))

	nc, err := comms.Connect(url,
		comms.Name(opts.Name),
		comms.Timeout(opts.Timeout),
		comms.ReconnectWait(reconnectWait),
		comms.MaxReconnects(opts.MaxReconnects),
		comms.DisconnectErrHandler(func(_ *comms.Conn, err error) {
			slog.Warn(fmt.Sprintf("%s - COMMS disconnected: %v", logPrefix, err))
		}),
		comms.ReconnectHandler(func(nc *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - COMMS reconnected to %s", logPrefix, nc.ConnectedUrl()))
		}),
		comms.ClosedHandler(func(_ *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - COMMS connection closed", logPrefix))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Connected to COMMS at %s", logPrefix, nc.ConnectedUrl()))
	return nc, nil
}

// Drain lets in-flight messages finish before closing nc. A nil conn is ignored.
func Drain(nc *comms.Conn) {
	if nc == nil || nc.IsClosed() {
		return
	}
	if err := nc.Drain(); err != nil {
		slog.Warn(fmt.Sprintf("%s - COMMS drain failed, closing: %v", logPrefix, err))
		nc.Close()
	}
}
