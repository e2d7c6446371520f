package listener

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// connGroup tracks the conversations a listener has open so shutdown can
// cancel them together and wait for them to finish.
type connGroup struct {
	cm     *ConnectionManager
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// newConnGroup detaches from ctx: conversations are ended by close, not by the
// accept loop stopping.
func newConnGroup(ctx context.Context, cm *ConnectionManager) *connGroup {
	connCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &connGroup{
		cm:     cm,
		ctx:    connCtx,
		cancel: cancel,
	}
}

// serve runs one conversation on rw and blocks until it ends.
func (g *connGroup) serve(protocol, remote string, rw io.ReadWriter) {
	g.wg.Add(1)
	defer g.wg.Done()

	log := slog.With("protocol", protocol, "conn", uuid.NewString())
	if remote != "" {
		log = log.With("remote", remote)
	}
	start := time.Now()
	log.InfoContext(g.ctx, "connection opened")

	g.cm.AcceptConnection(g.ctx, newLineEndings(rw))

	log.InfoContext(g.ctx, "connection closed", "duration", time.Since(start).Round(time.Millisecond))
}

func (g *connGroup) done() <-chan struct{} {
	return g.ctx.Done()
}

func (g *connGroup) close() {
	g.cancel()
	g.wg.Wait()
}
