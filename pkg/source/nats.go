package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/tidemill/boardd/pkg/board"
	"github.com/tidemill/boardd/pkg/view"
)

// DefaultSubject is the subject update payloads arrive on when none is
// configured.
const DefaultSubject = "boardd.updates"

// NATSSource receives update payloads published on a NATS subject. Payloads
// are JSON in any of the three accepted layouts; a payload that matches none
// of them is forwarded as an empty update and handled by the render gate,
// never dropped silently.
type NATSSource struct {
	subject  string
	base     view.Context
	logger   *zap.Logger
	onError  func(error)
	conn     *nats.Conn
	ownsConn bool

	sub    *nats.Subscription
	msgs   chan *nats.Msg
	notifs chan Notification
	stop   chan struct{}
}

// NATSOptions configures a NATSSource.
type NATSOptions struct {
	// URL of the NATS server. Defaults to nats.DefaultURL. Ignored when
	// Conn is set.
	URL string

	// Subject to subscribe on. Defaults to DefaultSubject.
	Subject string

	// Base view context merged into every notification.
	Base view.Context

	// Logger for subscription diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger

	// OnError is called with errors the source absorbs while it keeps
	// listening, so a frontend can surface them. Optional; must not block.
	OnError func(error)

	// Conn reuses an existing connection instead of dialing. The source
	// will not close a connection it did not open.
	Conn *nats.Conn
}

// NewNATSSource creates a source subscribed to update payloads.
func NewNATSSource(opts NATSOptions) (*NATSSource, error) {
	if opts.Subject == "" {
		opts.Subject = DefaultSubject
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	conn := opts.Conn
	ownsConn := false
	if conn == nil {
		url := opts.URL
		if url == "" {
			url = nats.DefaultURL
		}
		var err error
		conn, err = nats.Connect(url,
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(5),
			nats.ReconnectWait(1*time.Second),
		)
		if err != nil {
			return nil, fmt.Errorf("connect to nats: %w", err)
		}
		ownsConn = true
	}

	return &NATSSource{
		subject:  opts.Subject,
		base:     opts.Base,
		logger:   opts.Logger,
		onError:  opts.OnError,
		conn:     conn,
		ownsConn: ownsConn,
		msgs:     make(chan *nats.Msg, 64),
		notifs:   make(chan Notification, 10),
		stop:     make(chan struct{}),
	}, nil
}

// Name implements Source.
func (s *NATSSource) Name() string {
	return "nats:" + s.subject
}

// Start implements Source.
func (s *NATSSource) Start(ctx context.Context) error {
	sub, err := s.conn.ChanSubscribe(s.subject, s.msgs)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.subject, err)
	}
	s.sub = sub

	go s.processMessages(ctx)
	return nil
}

// Stop implements Source.
func (s *NATSSource) Stop() {
	select {
	case <-s.stop:
		return
	default:
		close(s.stop)
		if s.sub != nil {
			_ = s.sub.Unsubscribe()
		}
		if s.ownsConn {
			s.conn.Close()
		}
	}
}

// Notifications implements Source.
func (s *NATSSource) Notifications() <-chan Notification {
	return s.notifs
}

func (s *NATSSource) report(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}

func (s *NATSSource) processMessages(ctx context.Context) {
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case msg, ok := <-s.msgs:
			if !ok {
				return
			}
			s.handle(msg)
		}
	}
}

func (s *NATSSource) handle(msg *nats.Msg) {
	event := board.Decode(msg.Data)
	if event.IsEmpty() && len(msg.Data) > 0 {
		s.logger.Warn("unrecognized update payload, treating as empty",
			zap.String("subject", msg.Subject),
			zap.Int("bytes", len(msg.Data)))
		s.report(fmt.Errorf("unrecognized update payload on %s (%d bytes)", msg.Subject, len(msg.Data)))
	}

	n := newNotification(s.Name(), event, s.base)
	select {
	case s.notifs <- n:
		s.logger.Debug("update received",
			zap.String("notification_id", n.ID),
			zap.String("shape", event.Shape.String()))
	default:
		s.logger.Debug("notification channel full, dropping",
			zap.String("notification_id", n.ID))
	}
}

// Publish sends one update event to a subject, for producers feeding a
// NATSSource. It is a convenience for tooling; any NATS client publishing
// JSON in an accepted layout works just as well.
func Publish(conn *nats.Conn, subject string, event board.UpdateEvent) error {
	if conn == nil {
		return errors.New("nats publish: nil connection")
	}
	data, err := board.Encode(event)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}
	return conn.Publish(subject, data)
}
