// Package events publishes room lifecycle events for external consumers.
//
// Publishing is best effort: gameplay never waits on or fails because of an
// event. NATSPublisher forwards events to a NATS server under a subject
// prefix; Nop discards them; Memory keeps them for inspection.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/gamerooms/game/engine"
)

// Event types, also used as NATS subject suffixes
const (
	RoomCreated        = "rooms.created"
	RoomDestroyed      = "rooms.destroyed"
	GameFinished       = "games.finished"
	PlayerConnected    = "players.connected"
	PlayerDisconnected = "players.disconnected"
)

// Event is a lifecycle notification
type Event struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	RoomID   string          `json:"roomId,omitempty"`
	GameType engine.GameType `json:"gameType,omitempty"`
	PlayerID string          `json:"playerId,omitempty"`
	At       time.Time       `json:"at"`
	Data     interface{}     `json:"data,omitempty"`
}

// New creates an event of the given type stamped with a fresh id and time
func New(typ string) Event {
	return Event{ID: uuid.NewString(), Type: typ, At: time.Now().UTC()}
}

// Publisher sends events somewhere
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Memory records events in order
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Publish(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *Memory) Close() error { return nil }

// Events returns a copy of the recorded events
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// Types returns the recorded event types in order
func (m *Memory) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.events))
	for i, ev := range m.events {
		types[i] = ev.Type
	}
	return types
}

// NATSPublisher publishes JSON events to NATS as <prefix>.<type>
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	log    *zap.Logger
}

// NewNATSPublisher connects to url. The connection reconnects forever once established.
func NewNATSPublisher(url, prefix string, log *zap.Logger) (*NATSPublisher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := nats.Connect(url,
		nats.Name("gamerooms"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return &NATSPublisher{conn: conn, prefix: prefix, log: log}, nil
}

// Subject returns the subject an event type is published on
func (p *NATSPublisher) Subject(typ string) string {
	if p.prefix == "" {
		return typ
	}
	return p.prefix + "." + typ
}

func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.Type, err)
	}
	if err := p.conn.Publish(p.Subject(ev.Type), data); err != nil {
		return fmt.Errorf("publish event %s: %w", ev.Type, err)
	}
	return nil
}

// Close flushes pending events and closes the connection
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
