package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// NatsServer runs an embedded NATS server with JetStream and holds the
// process's own client connection to it.
type NatsServer struct {
	ns   *server.Server
	conn *nats.Conn
	js   nats.JetStreamContext

	startupTimeout time.Duration
	host           string
	port           int
	storeDir       string

	bootOnce sync.Once
	bootErr  error
}

func NewNatsServer(opts ...NatsServerOpt) (*NatsServer, error) {
	s := &NatsServer{
		startupTimeout: 10 * time.Second,
		host:           "127.0.0.1",
		port:           server.RANDOM_PORT,
	}

	for _, opt := range opts {
		opt(s)
	}

	sopts := &server.Options{
		Host:   s.host,
		Port:   s.port,
		NoSigs: true, // Let the application handle signals
		NoLog:  true,
	}
	if s.storeDir != "" {
		sopts.JetStream = true
		sopts.StoreDir = s.storeDir
	}

	ns, err := server.NewServer(sopts)
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	s.ns = ns

	return s, nil
}

// Boot starts the server and connects the internal client. It is safe to call
// more than once; only the first call does any work. Components that need the
// connection before the worker list starts (the key-value store) call it
// directly.
func (n *NatsServer) Boot() error {
	n.bootOnce.Do(func() {
		go n.ns.Start()

		if !n.ns.ReadyForConnections(n.startupTimeout) {
			n.bootErr = fmt.Errorf("nats server not ready for connections")
			return
		}

		conn, err := nats.Connect(n.ns.ClientURL())
		if err != nil {
			n.bootErr = fmt.Errorf("creating nats client connection: %w", err)
			return
		}
		n.conn = conn

		if n.storeDir != "" {
			js, err := conn.JetStream()
			if err != nil {
				n.bootErr = fmt.Errorf("creating jetstream context: %w", err)
				return
			}
			n.js = js
		}
	})
	return n.bootErr
}

// Start boots the server and blocks until ctx is done, then shuts it down.
func (n *NatsServer) Start(ctx context.Context) error {
	if err := n.Boot(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "nats server listening", "addr", n.ns.Addr())

	<-ctx.Done()
	n.Shutdown()

	return nil
}

// Shutdown closes the client connection and stops the server.
func (n *NatsServer) Shutdown() {
	if n.conn != nil {
		n.conn.Close()
	}
	n.ns.Shutdown()
	n.ns.WaitForShutdown()
}

// KeyValue binds to bucket, creating it on first use. JetStream must be
// enabled with WithStoreDir.
func (n *NatsServer) KeyValue(bucket string) (nats.KeyValue, error) {
	if err := n.Boot(); err != nil {
		return nil, err
	}
	if n.js == nil {
		return nil, fmt.Errorf("jetstream is not enabled")
	}

	kv, err := n.js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = n.js.CreateKeyValue(&nats.KeyValueConfig{Bucket: bucket})
	}
	if err != nil {
		return nil, fmt.Errorf("binding bucket %q: %w", bucket, err)
	}
	return kv, nil
}

// Subscribe creates a subscription on the given subject.
// The handler is called for each message received.
// Returns an unsubscribe function to remove the subscription.
func (n *NatsServer) Subscribe(subject string, handler func(data []byte)) (func(), error) {
	if n.conn == nil {
		return nil, fmt.Errorf("nats server not started")
	}
	sub, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Publish sends a message to the given subject
func (n *NatsServer) Publish(subject string, data []byte) error {
	if n.conn == nil {
		return fmt.Errorf("nats server not started")
	}
	return n.conn.Publish(subject, data)
}

// Flush waits until the server has processed everything published so far.
func (n *NatsServer) Flush() error {
	if n.conn == nil {
		return fmt.Errorf("nats server not started")
	}
	return n.conn.Flush()
}
