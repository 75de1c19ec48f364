package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"go.uber.org/zap"
)

// Listen binds a TCP listener on host:port. When the port is taken it walks
// upwards until a free one is found and returns the port actually bound.
func Listen(host string, port int) (net.Listener, int, error) {
	for {
		addr := net.JoinHostPort(host, fmt.Sprint(port))
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			if errors.Is(err, syscall.EADDRINUSE) {
				port++
				continue
			}
			return nil, 0, err
		}
		return ln, ln.Addr().(*net.TCPAddr).Port, nil
	}
}

// Serve runs the accept loop on ln until ctx is cancelled. Every connection
// is handed to handler on its own goroutine.
func Serve(ctx context.Context, ln net.Listener, handler func(conn net.Conn), logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	// When ctx is cancelled, close listener
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			// When ln.Close() is called, Accept() returns an error.
			// This is how we break out of the loop cleanly.
			select {
			case <-ctx.Done():
				return nil
			default:
				if errors.Is(err, net.ErrClosed) {
					return nil
				}
				logger.Warn("accept failed", zap.Error(err))
				continue
			}
		}

		logger.Debug("client connected", zap.Stringer("remote", conn.RemoteAddr()))
		go handler(conn)
	}
}
