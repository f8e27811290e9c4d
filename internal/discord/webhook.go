// Package discord posts moderation notifications to a Discord webhook.
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/event"
	"github.com/osse101/opitemdb/internal/logger"
	"github.com/osse101/opitemdb/internal/metrics"
	"github.com/osse101/opitemdb/internal/worker"
)

// WebhookSender executes Discord webhooks. *discordgo.Session implements it.
type WebhookSender interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Queue runs jobs off the request path
type Queue interface {
	TryEnqueue(job worker.Job) error
}

// Notifier tells moderators about newly submitted items
type Notifier struct {
	sender    WebhookSender
	webhookID string
	token     string
	queue     Queue
	now       func() time.Time
}

// NewNotifier creates a notifier posting to the given webhook through queue
func NewNotifier(sender WebhookSender, webhookID, token string, queue Queue) *Notifier {
	return &Notifier{
		sender:    sender,
		webhookID: webhookID,
		token:     token,
		queue:     queue,
		now:       time.Now,
	}
}

// NewSession returns a session able to execute webhooks; webhook calls carry
// their own token so no bot credentials are needed
func NewSession() (*discordgo.Session, error) {
	return discordgo.New("")
}

// Register subscribes the notifier to item submissions
func (n *Notifier) Register(bus event.Bus) {
	bus.Subscribe(event.ItemCreated, n.HandleItemCreated)
	logger.Component("discord").Info(LogMsgNotifierRegistered)
}

// HandleItemCreated queues a notification for items awaiting moderation.
// Queue failures are counted and logged but never fail the submission.
func (n *Notifier) HandleItemCreated(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)
	payload, err := event.DecodePayload[domain.ItemEventPayload](evt.Payload)
	if err != nil {
		log.Warn(LogMsgPayloadInvalid, "event_type", evt.Type, "error", err)
		return nil
	}
	if payload.IsPublished {
		return nil
	}

	job := worker.JobFunc(func(ctx context.Context) error {
		return n.Send(ctx, payload)
	})
	if err := n.queue.TryEnqueue(job); err != nil {
		metrics.NotificationFailures.Inc()
		log.Warn(LogMsgNotificationDropped, "item_id", payload.ItemID, "error", err)
	}
	return nil
}

// Send posts the notification for one pending item
func (n *Notifier) Send(ctx context.Context, p domain.ItemEventPayload) error {
	params := &discordgo.WebhookParams{
		Content: notifyContent,
		Embeds:  []*discordgo.MessageEmbed{n.embed(p)},
		// never ping anyone from user-supplied titles
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	if _, err := n.sender.WebhookExecute(n.webhookID, n.token, false, params, discordgo.WithContext(ctx)); err != nil {
		metrics.NotificationFailures.Inc()
		logger.FromContext(ctx).Warn(LogMsgNotificationFailed, "item_id", p.ItemID, "error", err)
		return fmt.Errorf("failed to execute moderation webhook: %w", err)
	}
	logger.FromContext(ctx).Debug(LogMsgNotificationSent, "item_id", p.ItemID)
	return nil
}

func (n *Notifier) embed(p domain.ItemEventPayload) *discordgo.MessageEmbed {
	title := p.Title
	if r := []rune(title); len(r) > notifyMaxTitleRunes {
		title = string(r[:notifyMaxTitleRunes-1]) + "…"
	}
	if title == "" {
		title = fmt.Sprintf("Item #%d", p.ItemID)
	}
	return &discordgo.MessageEmbed{
		Title:     title,
		Color:     colorPending,
		Timestamp: n.now().UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: notifyFieldItemID, Value: fmt.Sprintf("%d", p.ItemID), Inline: true},
			{Name: notifyFieldOwner, Value: p.OwnerID, Inline: true},
			{Name: notifyFieldReview, Value: notifyReviewCommand},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: notifyFooter},
	}
}
