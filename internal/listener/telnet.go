package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"syscall"

	"github.com/iammegalith/telnet"
)

// TelnetListener serves the palace conversation over telnet.
type TelnetListener struct {
	addr string
	cm   *ConnectionManager
}

func NewTelnetListener(addr string, cm *ConnectionManager) *TelnetListener {
	return &TelnetListener{
		addr: addr,
		cm:   cm,
	}
}

func (l *TelnetListener) Start(ctx context.Context) error {
	group := newConnGroup(ctx, l.cm)
	svr := telnet.NewServer(l.addr, telnetHandler{group: group})

	slog.InfoContext(ctx, "listening for telnet", "addr", l.addr)

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			svr.Stop()
			group.close()
		case <-stopped:
		}
	}()

	if err := svr.ListenAndServe(); err != nil && ctx.Err() == nil {
		group.close()
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("telnet address %s is already in use", l.addr)
		}
		return fmt.Errorf("serving telnet on %s: %w", l.addr, err)
	}
	return nil
}

type telnetHandler struct {
	group *connGroup
}

func (h telnetHandler) HandleTelnet(conn *telnet.Connection) {
	defer func() {
		if err := conn.Close(); err != nil {
			slog.WarnContext(h.group.ctx, "closing telnet connection", "error", err)
		}
	}()

	h.group.serve("telnet", "", conn)
}
