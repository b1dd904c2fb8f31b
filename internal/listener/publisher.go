package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/OxanaKozlova/workflow/internal/engine"
	"github.com/OxanaKozlova/workflow/internal/ir"
)

// Channel is the publishing side of an AMQP channel. *amqp.Channel
// implements it.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Message is the JSON body of a published event.
type Message struct {
	Event      string     `json:"event"`
	Workflow   string     `json:"workflow"`
	Phase      string     `json:"phase"`
	Transition string     `json:"transition"`
	SubjectID  string     `json:"subject_id"`
	Marking    ir.Marking `json:"marking"`
}

// Publisher is a Dispatcher decorator that publishes workflow events to an
// AMQP exchange. The routing key is the event name, so consumers bind with
// patterns such as "workflow.article.enter.#".
//
// Events of an Apply are held back until the new marking is persisted:
// wrap the marking store with Store, and the pending messages of a subject
// are sent after its SetMarking succeeds. A failed listener or store write
// drops them, so consumers never see a transition that was not saved.
//
// Guard events are not published unless WithGuardEvents is set: they are
// evaluated repeatedly and carry no state change. When enabled they are
// sent immediately.
type Publisher struct {
	next     engine.Dispatcher
	ch       Channel
	exchange string
	ids      engine.IDGenerator
	guards   bool
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string][]outgoing
}

type outgoing struct {
	key string
	msg amqp.Publishing
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithGuardEvents also publishes guard events.
func WithGuardEvents() PublisherOption {
	return func(p *Publisher) { p.guards = true }
}

// WithMessageIDs sets the message id generator. Default: UUIDv7.
func WithMessageIDs(g engine.IDGenerator) PublisherOption {
	return func(p *Publisher) { p.ids = g }
}

// WithPublisherLogger sets the logger.
func WithPublisherLogger(l *zap.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = l }
}

// NewPublisher wraps next (which may be nil) and publishes to exchange.
func NewPublisher(next engine.Dispatcher, ch Channel, exchange string, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		next:     next,
		ch:       ch,
		exchange: exchange,
		ids:      engine.UUIDv7Generator{},
		logger:   zap.NewNop(),
		pending:  make(map[string][]outgoing),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Dispatch implements engine.Dispatcher. Non-guard events are queued per
// subject until Flush.
func (p *Publisher) Dispatch(ctx context.Context, name string, event *engine.Event) error {
	subject := subjectLabel(event.Subject)
	if p.next != nil {
		if err := p.next.Dispatch(ctx, name, event); err != nil {
			p.Discard(subject)
			return err
		}
	}

	if event.Phase == engine.PhaseGuard {
		if !p.guards {
			return nil
		}
		msg, err := p.publishing(name, event)
		if err != nil {
			return err
		}
		return p.send(ctx, outgoing{name, msg})
	}

	msg, err := p.publishing(name, event)
	if err != nil {
		p.Discard(subject)
		return err
	}
	p.mu.Lock()
	p.pending[subject] = append(p.pending[subject], outgoing{name, msg})
	p.mu.Unlock()
	return nil
}

// Flush publishes the queued events of subject in dispatch order. Messages
// that fail to publish are dropped with the rest of the queue.
func (p *Publisher) Flush(ctx context.Context, subject string) error {
	p.mu.Lock()
	queue := p.pending[subject]
	delete(p.pending, subject)
	p.mu.Unlock()

	for _, out := range queue {
		if err := p.send(ctx, out); err != nil {
			return err
		}
	}
	return nil
}

// Discard drops the queued events of subject.
func (p *Publisher) Discard(subject string) {
	p.mu.Lock()
	delete(p.pending, subject)
	p.mu.Unlock()
}

// Pending returns the number of queued events of subject.
func (p *Publisher) Pending(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending[subject])
}

func (p *Publisher) send(ctx context.Context, out outgoing) error {
	if err := p.ch.PublishWithContext(ctx, p.exchange, out.key, false, false, out.msg); err != nil {
		return fmt.Errorf("publish %s: %w", out.key, err)
	}
	p.logger.Debug("event published",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", out.key),
		zap.String("message_id", out.msg.MessageId))
	return nil
}

// Store wraps a marking store so that the events of an Apply are published
// once SetMarking succeeds, and dropped when it fails.
func (p *Publisher) Store(next engine.MarkingStore) engine.MarkingStore {
	return &publishingStore{next: next, publisher: p}
}

type publishingStore struct {
	next      engine.MarkingStore
	publisher *Publisher
}

func (s *publishingStore) GetMarking(ctx context.Context, subject any) (ir.Marking, error) {
	return s.next.GetMarking(ctx, subject)
}

func (s *publishingStore) SetMarking(ctx context.Context, subject any, marking ir.Marking) error {
	label := subjectLabel(subject)
	if err := s.next.SetMarking(ctx, subject, marking); err != nil {
		s.publisher.Discard(label)
		return err
	}
	if err := s.publisher.Flush(ctx, label); err != nil {
		return fmt.Errorf("marking saved, events not published: %w", err)
	}
	return nil
}

// SinglePlace forwards the capability of the wrapped store.
func (s *publishingStore) SinglePlace() bool {
	sp, ok := s.next.(engine.SinglePlaceStore)
	return ok && sp.SinglePlace()
}

func (p *Publisher) publishing(name string, event *engine.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(Message{
		Event:      name,
		Workflow:   event.Workflow,
		Phase:      string(event.Phase),
		Transition: event.Transition.Name,
		SubjectID:  subjectLabel(event.Subject),
		Marking:    event.Marking,
	})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode %s: %w", name, err)
	}

	return amqp.Publishing{
		MessageId:    p.ids.Generate(),
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers: amqp.Table{
			"x-event-name": name,
			"x-workflow":   event.Workflow,
		},
		Body: body,
	}, nil
}

// Connection is an AMQP connection with one channel.
type Connection struct {
	*amqp.Connection
	*amqp.Channel
}

// Dial connects to url, opens a channel and declares a durable topic
// exchange.
func Dial(url, exchange string) (*Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}
	return &Connection{conn, ch}, nil
}

// Close closes the channel, then the connection.
func (c *Connection) Close() error {
	if c.Channel != nil {
		if err := c.Channel.Close(); err != nil {
			return err
		}
	}
	return c.Connection.Close()
}
