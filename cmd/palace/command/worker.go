package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-palace/internal/commands"
	"github.com/pixil98/go-palace/internal/listener"
	"github.com/pixil98/go-palace/internal/messaging"
	"github.com/pixil98/go-palace/internal/palace"
	"github.com/pixil98/go-palace/internal/session"
	"github.com/pixil98/go-palace/internal/spatial"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	workers := service.WorkerList{}

	// The nats server is only needed for nats storage or event forwarding. It
	// is booted here because the store loads from it before workers start.
	var ns *messaging.NatsServer
	if cfg.Storage.Backend == StorageBackendNats || cfg.Nats.ForwardEvents {
		var err error
		ns, err = cfg.Nats.buildNatsServer()
		if err != nil {
			return nil, fmt.Errorf("creating nats server: %w", err)
		}
		if err := ns.Boot(); err != nil {
			return nil, fmt.Errorf("booting nats server: %w", err)
		}
		workers["nats"] = ns
	}

	collections, err := cfg.Storage.BuildCollections(ns)
	if err != nil {
		return nil, fmt.Errorf("creating storage: %w", err)
	}

	bus := palace.NewBus()
	store, err := palace.NewStore(collections, bus, cfg.Session.storeOpts()...)
	if err != nil {
		return nil, fmt.Errorf("loading palace: %w", err)
	}
	if cfg.Session.BootstrapRoom != "" {
		if _, err := store.Bootstrap(cfg.Session.BootstrapRoom, ""); err != nil {
			return nil, fmt.Errorf("creating bootstrap room: %w", err)
		}
	}

	if cfg.Nats.ForwardEvents {
		workers["events"] = messaging.NewEventForwarder(bus, ns, cfg.Nats.SubjectPrefix)
	}

	rsp, err := commands.NewResponses(cfg.Responses)
	if err != nil {
		return nil, fmt.Errorf("compiling responses: %w", err)
	}
	imageOpts, err := cfg.ImageGeneration.ExecutorOpts()
	if err != nil {
		return nil, fmt.Errorf("configuring image generation: %w", err)
	}
	exec, err := commands.NewExecutor(store, spatial.NewMapper(), rsp, imageOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating executor: %w", err)
	}

	sessionOpts, err := cfg.Session.sessionOpts()
	if err != nil {
		return nil, fmt.Errorf("configuring session: %w", err)
	}
	sess := session.NewSession(exec, sessionOpts...)
	workers["session"] = &sessionWorker{session: sess, exec: exec, autopilot: cfg.Session.Autopilot}

	// Create Listeners
	cm := listener.NewConnectionManager(sess)
	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		listener, err := l.BuildListener(cm)
		if err != nil {
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d", i)] = listener
	}
	workers["listeners"] = &listeners

	return workers, nil
}

// sessionWorker owns the session's background work: the autopilot and any
// room images still being generated at shutdown.
type sessionWorker struct {
	session   *session.Session
	exec      *commands.Executor
	autopilot bool
}

func (w *sessionWorker) Start(ctx context.Context) error {
	if w.autopilot {
		w.session.EnableAutopilot(ctx)
	} else if _, err := w.session.ResumeAutopilot(ctx); err != nil {
		slog.WarnContext(ctx, "reading autopilot setting", "error", err)
	}

	<-ctx.Done()

	w.session.DisableAutopilot()
	w.exec.Wait()
	slog.InfoContext(ctx, "session stopped")
	return nil
}
