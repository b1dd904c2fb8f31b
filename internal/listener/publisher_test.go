package listener

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OxanaKozlova/workflow/internal/engine"
	"github.com/OxanaKozlova/workflow/internal/ir"
	"github.com/OxanaKozlova/workflow/internal/testutil"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	messages []published
	err      error
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, published{exchange, key, msg})
	return nil
}

func TestPublisherRoutesByEventName(t *testing.T) {
	ch := &fakeChannel{}
	ids := engine.NewFixedGenerator("m-1", "m-2", "m-3", "m-4", "m-5", "m-6", "m-7", "m-8", "m-9", "m-10")
	p := NewPublisher(nil, ch, "workflows", WithMessageIDs(ids))

	w, err := engine.New(reviewDefinition(t), p.Store(engine.MultipleStateMarkingStore{}),
		engine.WithName("article"), engine.WithDispatcher(p))
	require.NoError(t, err)

	_, err = w.Apply(context.Background(), testutil.NewSubjectAt("a-1", "draft"), "to_review")
	require.NoError(t, err)

	var keys []string
	for _, m := range ch.messages {
		assert.Equal(t, "workflows", m.exchange)
		keys = append(keys, m.key)
	}
	assert.Equal(t, []string{
		"workflow.leave",
		"workflow.article.leave",
		"workflow.article.leave.draft",
		"workflow.transition",
		"workflow.article.transition",
		"workflow.article.transition.to_review",
		"workflow.enter",
		"workflow.article.enter",
		"workflow.article.enter.review",
		"workflow.article.announce.publish",
	}, keys, "guard events are not published by default")

	last := ch.messages[len(ch.messages)-1].msg
	assert.Equal(t, "m-10", last.MessageId)
	assert.Equal(t, "application/json", last.ContentType)
	assert.Equal(t, amqp.Persistent, last.DeliveryMode)
	assert.Equal(t, "workflow.article.announce.publish", last.Headers["x-event-name"])

	var body Message
	require.NoError(t, json.Unmarshal(last.Body, &body))
	assert.Equal(t, "announce", body.Phase)
	assert.Equal(t, "to_review", body.Transition)
	assert.Equal(t, "a-1", body.SubjectID)
	assert.Equal(t, "{review}", body.Marking.String())
}

type failingStore struct {
	engine.MultipleStateMarkingStore
}

func (failingStore) SetMarking(context.Context, any, ir.Marking) error {
	return errors.New("disk full")
}

func TestPublisherHoldsEventsUntilMarkingSaved(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(nil, ch, "workflows")
	ctx := context.Background()

	require.NoError(t, p.Dispatch(ctx, "workflow.leave", &engine.Event{Phase: engine.PhaseLeave, Subject: "a-1"}))
	require.NoError(t, p.Dispatch(ctx, "workflow.enter", &engine.Event{Phase: engine.PhaseEnter, Subject: "a-1"}))
	assert.Empty(t, ch.messages)
	assert.Equal(t, 2, p.Pending("a-1"))

	require.NoError(t, p.Flush(ctx, "a-1"))
	require.Len(t, ch.messages, 2)
	assert.Equal(t, "workflow.leave", ch.messages[0].key)
	assert.Equal(t, "workflow.enter", ch.messages[1].key)
	assert.Zero(t, p.Pending("a-1"))
}

func TestPublisherDropsEventsWhenStoreFails(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(nil, ch, "workflows")

	w, err := engine.New(reviewDefinition(t), p.Store(failingStore{}),
		engine.WithName("article"), engine.WithDispatcher(p))
	require.NoError(t, err)

	_, err = w.Apply(context.Background(), testutil.NewSubjectAt("a-1", "draft"), "to_review")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	assert.Empty(t, ch.messages)
	assert.Zero(t, p.Pending("a-1"))
}

func TestPublisherDropsEventsWhenListenerFails(t *testing.T) {
	ch := &fakeChannel{}
	inner := engine.NewEventDispatcher()
	inner.AddListener("workflow.enter", func(context.Context, *engine.Event) error {
		return errors.New("veto")
	})
	p := NewPublisher(inner, ch, "workflows")

	w, err := engine.New(reviewDefinition(t), p.Store(engine.MultipleStateMarkingStore{}),
		engine.WithName("article"), engine.WithDispatcher(p))
	require.NoError(t, err)

	subject := testutil.NewSubjectAt("a-1", "draft")
	_, err = w.Apply(context.Background(), subject, "to_review")
	require.Error(t, err)

	assert.Empty(t, ch.messages)
	assert.Zero(t, p.Pending("a-1"))
	assert.Equal(t, []string{"draft"}, subject.PlaceList())
}

func TestPublisherStoreForwardsSinglePlace(t *testing.T) {
	p := NewPublisher(nil, &fakeChannel{}, "workflows")

	single, ok := p.Store(engine.SingleStateMarkingStore{}).(engine.SinglePlaceStore)
	require.True(t, ok)
	assert.True(t, single.SinglePlace())

	multi := p.Store(engine.MultipleStateMarkingStore{}).(engine.SinglePlaceStore)
	assert.False(t, multi.SinglePlace())
}

func TestPublisherWithGuardEvents(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(nil, ch, "workflows", WithGuardEvents())

	err := p.Dispatch(context.Background(), "workflow.guard", &engine.Event{Phase: engine.PhaseGuard})
	require.NoError(t, err)
	assert.Len(t, ch.messages, 1, "guard events are sent immediately")
}

func TestPublisherSkipsWhenListenerFails(t *testing.T) {
	ch := &fakeChannel{}
	inner := engine.NewEventDispatcher()
	inner.AddListener("workflow.enter", func(context.Context, *engine.Event) error {
		return errors.New("veto")
	})
	p := NewPublisher(inner, ch, "workflows")

	err := p.Dispatch(context.Background(), "workflow.enter", &engine.Event{Phase: engine.PhaseEnter, Subject: "a-1"})
	require.Error(t, err)
	assert.Zero(t, p.Pending("a-1"))
	require.NoError(t, p.Flush(context.Background(), "a-1"))
	assert.Empty(t, ch.messages)
}

func TestPublisherPropagatesBrokerErrors(t *testing.T) {
	ch := &fakeChannel{err: amqp.ErrClosed}
	p := NewPublisher(nil, ch, "workflows")
	ctx := context.Background()

	require.NoError(t, p.Dispatch(ctx, "workflow.enter", &engine.Event{Phase: engine.PhaseEnter, Subject: "a-1"}))
	err := p.Flush(ctx, "a-1")
	assert.ErrorIs(t, err, amqp.ErrClosed)
}
