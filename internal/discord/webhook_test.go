package discord

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/event"
	"github.com/osse101/opitemdb/internal/worker"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(webhookID, token, wait, data)
	msg, _ := args.Get(0).(*discordgo.Message)
	return msg, args.Error(1)
}

// inlineQueue runs jobs synchronously
type inlineQueue struct {
	err error
}

func (q *inlineQueue) TryEnqueue(job worker.Job) error {
	if q.err != nil {
		return q.err
	}
	return job.Process(context.Background())
}

func newTestNotifier(sender WebhookSender, q Queue) *Notifier {
	n := NewNotifier(sender, "wh-1", "secret", q)
	n.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return n
}

func TestNotifier_PendingItemIsAnnounced(t *testing.T) {
	sender := &MockSender{}
	bus := event.NewMemoryBus()
	newTestNotifier(sender, &inlineQueue{}).Register(bus)

	sender.On("WebhookExecute", "wh-1", "secret", false, mock.MatchedBy(func(p *discordgo.WebhookParams) bool {
		if len(p.Embeds) != 1 || p.AllowedMentions == nil {
			return false
		}
		e := p.Embeds[0]
		return e.Title == "Flammenklinge" && e.Fields[0].Value == "7" && e.Timestamp == "2026-01-02T03:04:05Z"
	})).Return(&discordgo.Message{}, nil).Once()

	err := bus.Publish(context.Background(), event.NewItemEvent(event.ItemCreated,
		domain.ItemSummary{ID: 7, Title: "Flammenklinge", OwnerID: "u-1"}, "u-1"))
	require.NoError(t, err)

	sender.AssertExpectations(t)
}

func TestNotifier_PublishedItemIsIgnored(t *testing.T) {
	sender := &MockSender{}
	n := newTestNotifier(sender, &inlineQueue{})

	err := n.HandleItemCreated(context.Background(), event.NewItemEvent(event.ItemCreated,
		domain.ItemSummary{ID: 7, IsPublished: true}, "mod"))
	require.NoError(t, err)

	sender.AssertNotCalled(t, "WebhookExecute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNotifier_FailuresNeverFailTheEvent(t *testing.T) {
	sender := &MockSender{}
	sender.On("WebhookExecute", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("discord down"))
	evt := event.NewItemEvent(event.ItemCreated, domain.ItemSummary{ID: 7}, "u-1")

	full := newTestNotifier(sender, &inlineQueue{err: worker.ErrQueueFull})
	assert.NoError(t, full.HandleItemCreated(context.Background(), evt))
	sender.AssertNotCalled(t, "WebhookExecute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	err := newTestNotifier(sender, &inlineQueue{}).Send(context.Background(), domain.ItemEventPayload{ItemID: 7})
	assert.ErrorContains(t, err, "discord down")
}

func TestNotifier_EmbedTitle(t *testing.T) {
	n := newTestNotifier(nil, nil)

	assert.Equal(t, "Item #3", n.embed(domain.ItemEventPayload{ItemID: 3}).Title)

	long := make([]rune, 300)
	for i := range long {
		long[i] = 'ä'
	}
	got := []rune(n.embed(domain.ItemEventPayload{Title: string(long)}).Title)
	assert.Len(t, got, notifyMaxTitleRunes)
	assert.Equal(t, '…', got[len(got)-1])
}
