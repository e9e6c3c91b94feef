package source

import (
	"context"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemill/boardd/pkg/board"
	"github.com/tidemill/boardd/pkg/view"
)

// startTestNATSServer starts an embedded NATS server for testing.
func startTestNATSServer(t *testing.T) *natsserver.Server {
	t.Helper()
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1, // Random port
		NoLog:  true,
		NoSigs: true,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

func TestNATSSourceReceivesUpdates(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	src, err := NewNATSSource(NATSOptions{
		Conn:    nc,
		Subject: "boardd.updates.test",
		Base:    view.Context{Config: "status"},
	})
	require.NoError(t, err)
	defer src.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, src.Start(ctx))

	event := board.Flat([]board.RawItem{
		{"id": 1, "status": "todo"},
		{"id": 2, "status": "done"},
	})
	require.NoError(t, Publish(nc, "boardd.updates.test", event))

	n := waitNotification(t, src)
	assert.Equal(t, "nats:boardd.updates.test", n.Source)
	assert.Equal(t, board.ShapeFlat, n.Event.Shape)
	assert.Equal(t, "status", n.Context.Config)
	assert.Len(t, board.Extract(n.Event), 2)
}

func TestNATSSourceForwardsMalformedAsEmpty(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	errs := make(chan error, 1)
	src, err := NewNATSSource(NATSOptions{
		Conn:    nc,
		Subject: "boardd.updates.bad",
		OnError: func(err error) {
			select {
			case errs <- err:
			default:
			}
		},
	})
	require.NoError(t, err)
	defer src.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, src.Start(ctx))

	require.NoError(t, nc.Publish("boardd.updates.bad", []byte("not json at all")))

	n := waitNotification(t, src)
	assert.True(t, n.Event.IsEmpty())

	// Forwarded as empty, but the oddity is still reported.
	select {
	case err := <-errs:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for payload report")
	}
}

func TestNATSSourceDoesNotCloseSharedConn(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	src, err := NewNATSSource(NATSOptions{Conn: nc})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, src.Start(ctx))
	src.Stop()

	assert.False(t, nc.IsClosed())
}

func TestPublishRequiresConn(t *testing.T) {
	err := Publish(nil, "subject", board.Empty())
	require.Error(t, err)
}
