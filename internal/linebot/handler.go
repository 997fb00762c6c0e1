// Package linebot serves the assistant over a LINE Messaging API webhook.
// Events are acknowledged immediately and answered asynchronously with the
// reply API; choices and navigation steps carry quick reply buttons.
package linebot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/garyellow/campus-navigator/internal/assistant"
	"github.com/garyellow/campus-navigator/internal/config"
	"github.com/garyellow/campus-navigator/internal/ctxutil"
	"github.com/garyellow/campus-navigator/internal/lineutil"
	"github.com/garyellow/campus-navigator/internal/logger"
	"github.com/garyellow/campus-navigator/internal/metrics"
	"github.com/garyellow/campus-navigator/internal/ratelimit"
	"github.com/garyellow/campus-navigator/internal/sentry"
)

// Channel is the ctxutil channel name of this transport.
const Channel = "line"

const followText = "Hi! I'm the campus assistant. Ask me for directions, like \"from AB1-303 to AB2-112\", or about a teacher, like \"Who is Sneha?\""

// Replier sends reply messages. *messaging_api.MessagingApiAPI satisfies it.
type Replier interface {
	ReplyMessage(req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error)
}

// Assistant answers one chat message.
type Assistant interface {
	Reply(ctx context.Context, sessionID, text string) assistant.Reply
}

// Handler handles LINE webhook events
type Handler struct {
	channelSecret string
	client        Replier
	assistant     Assistant
	metrics       *metrics.Metrics
	logger        *logger.Logger
	rateLimiter   *ratelimit.Limiter // Global pacing of reply API calls
	timeout       time.Duration
	wg            sync.WaitGroup

	maxEventsPerWebhook int
}

// HandlerConfig holds configuration for creating a new Handler
type HandlerConfig struct {
	ChannelSecret string
	ChannelToken  string
	Assistant     Assistant
	Metrics       *metrics.Metrics
	Logger        *logger.Logger

	// Client overrides the messaging API client built from ChannelToken.
	Client Replier

	// RepliesPerSecond paces reply API calls (default 50).
	RepliesPerSecond float64
	// MaxEventsPerWebhook caps events handled from one delivery (default 100).
	MaxEventsPerWebhook int
}

// NewHandler creates a new webhook handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.ChannelSecret == "" {
		return nil, errors.New("channel secret is required")
	}

	client := cfg.Client
	if client == nil {
		api, err := messaging_api.NewMessagingApiAPI(cfg.ChannelToken)
		if err != nil {
			return nil, fmt.Errorf("create messaging API client: %w", err)
		}
		client = api
	}

	rps := cfg.RepliesPerSecond
	if rps <= 0 {
		rps = 50
	}
	maxEvents := cfg.MaxEventsPerWebhook
	if maxEvents <= 0 {
		maxEvents = 100
	}

	return &Handler{
		channelSecret:       cfg.ChannelSecret,
		client:              client,
		assistant:           cfg.Assistant,
		metrics:             cfg.Metrics,
		logger:              cfg.Logger.WithModule("linebot"),
		rateLimiter:         ratelimit.New(rps, rps),
		timeout:             config.MessageProcessing,
		maxEventsPerWebhook: maxEvents,
	}, nil
}

// Handle is the Gin handler for the webhook endpoint
func (h *Handler) Handle(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn("Invalid webhook signature")
			h.recordHTTPError("invalid_signature")
			c.Status(http.StatusBadRequest)
		} else {
			h.logger.WithError(err).Error("Failed to parse webhook request")
			h.recordHTTPError("parse_error")
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	// LINE expects 200 OK before any reply is sent.
	c.Status(http.StatusOK)

	start := time.Now()
	if len(cb.Events) > h.maxEventsPerWebhook {
		h.logger.WithField("event_count", len(cb.Events)).
			WithField("limit", h.maxEventsPerWebhook).
			Warn("Too many events in webhook batch; truncating")
		cb.Events = cb.Events[:h.maxEventsPerWebhook]
	}

	events := make([]webhook.EventInterface, len(cb.Events))
	copy(events, cb.Events)

	h.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.WithField("panic", r).Error("Panic in async event processing")
				sentry.CaptureExceptionWithContext(context.Background(), fmt.Errorf("linebot panic: %v", r))
			}
		}()
		for _, event := range events {
			h.processEvent(context.Background(), event, start)
		}
	})
}

// processEvent answers a single webhook event.
func (h *Handler) processEvent(ctx context.Context, event webhook.EventInterface, webhookStart time.Time) {
	eventStart := time.Now()
	ctx = ctxutil.WithChannel(ctx, Channel)

	eventID, isRedelivery := extractEventMeta(event)
	log := h.logger
	if eventID != "" {
		ctx = ctxutil.WithRequestID(ctx, eventID)
		log = log.WithRequestID(eventID)
	}
	if isRedelivery {
		log = log.WithField("is_redelivery", true)
	}

	var (
		eventType  string
		replyToken string
		messages   []messaging_api.MessageInterface
	)

	switch e := event.(type) {
	case webhook.MessageEvent:
		eventType = "message"
		replyToken = e.ReplyToken
		text, ok := e.Message.(webhook.TextMessageContent)
		if !ok {
			log.WithField("message_type", e.Message.GetType()).Debug("Ignoring non-text message")
			return
		}
		sessionID := SessionID(e.Source)
		if sessionID == "" {
			log.Debug("Message without a usable source, skipping")
			return
		}

		processCtx, cancel := context.WithTimeout(ctx, h.timeout)
		reply := h.assistant.Reply(processCtx, sessionID, text.Text)
		cancel()
		messages = BuildMessages(reply)
	case webhook.FollowEvent:
		eventType = "follow"
		replyToken = e.ReplyToken
		messages = []messaging_api.MessageInterface{
			lineutil.NewTextMessageWithQuickReply(followText, lineutil.QuickReplyHelpAction()),
		}
	default:
		log.WithField("event_type", fmt.Sprintf("%T", e)).Debug("Unsupported event type")
		return
	}

	h.recordWebhook(eventType, "success", time.Since(eventStart).Seconds())
	h.reply(ctx, log, eventType, replyToken, messages, eventStart)

	log.WithField("event_type", eventType).
		WithField("event_duration_ms", time.Since(eventStart).Milliseconds()).
		WithField("batch_duration_ms", time.Since(webhookStart).Milliseconds()).
		Info("Event processed")
}

func (h *Handler) reply(ctx context.Context, log *logger.Logger, eventType, replyToken string, messages []messaging_api.MessageInterface, eventStart time.Time) {
	if len(messages) == 0 {
		return
	}
	if len(replyToken) < lineutil.MinReplyTokenLength {
		log.WithField("token_length", len(replyToken)).Debug("Invalid reply token, skipping reply")
		return
	}
	if len(messages) > lineutil.MaxMessagesPerReply {
		messages = messages[:lineutil.MaxMessagesPerReply]
	}

	if !h.rateLimiter.Allow() {
		log.Warn("Reply rate limit exceeded; waiting")
		if h.metrics != nil {
			h.metrics.RecordRateLimiterDrop("line_reply")
		}
		waitCtx, cancel := context.WithTimeout(ctx, config.LineReply)
		err := h.rateLimiter.Wait(waitCtx)
		cancel()
		if err != nil {
			log.WithError(err).Error("Gave up waiting for reply capacity")
			h.recordWebhook(eventType, "reply_error", time.Since(eventStart).Seconds())
			return
		}
	}

	if _, err := h.client.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	}); err != nil {
		if strings.Contains(err.Error(), "Invalid reply token") {
			log.WithError(err).Debug("Reply token already used or invalid")
		} else {
			log.WithError(err).Error("Failed to send reply")
			sentry.CaptureExceptionWithContext(ctx, err)
		}
		h.recordWebhook(eventType, "reply_error", time.Since(eventStart).Seconds())
	}
}

// BuildMessages renders an assistant reply as LINE messages. Choices get one
// quick reply button per option; navigation steps get "Reached" and "Cancel".
func BuildMessages(r assistant.Reply) []messaging_api.MessageInterface {
	var items []lineutil.QuickReplyItem
	switch {
	case r.AwaitingChoice:
		for i, opt := range r.ChoiceOptions {
			items = append(items, lineutil.QuickReplyChoiceAction(i+1, opt))
		}
		items = append(items, lineutil.QuickReplyCancelAction())
	case r.AwaitingConfirmation:
		items = append(items, lineutil.QuickReplyReachedAction(), lineutil.QuickReplyCancelAction())
	}
	return []messaging_api.MessageInterface{lineutil.NewTextMessageWithQuickReply(r.Text, items...)}
}

// SessionID keys the conversation by the LINE chat: one session per user in
// a 1:1 chat, one per group or room otherwise.
func SessionID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		if s.UserId != "" {
			return "line:" + s.UserId
		}
	case webhook.GroupSource:
		if s.GroupId != "" {
			return "line:" + s.GroupId
		}
	case webhook.RoomSource:
		if s.RoomId != "" {
			return "line:" + s.RoomId
		}
	}
	return ""
}

func extractEventMeta(event webhook.EventInterface) (string, bool) {
	switch e := event.(type) {
	case webhook.MessageEvent:
		return e.WebhookEventId, e.DeliveryContext != nil && e.DeliveryContext.IsRedelivery
	case webhook.FollowEvent:
		return e.WebhookEventId, e.DeliveryContext != nil && e.DeliveryContext.IsRedelivery
	default:
		return "", false
	}
}

func (h *Handler) recordWebhook(eventType, status string, seconds float64) {
	if h.metrics != nil {
		h.metrics.RecordWebhook(eventType, status, seconds)
	}
}

func (h *Handler) recordHTTPError(errorType string) {
	if h.metrics != nil {
		h.metrics.RecordHTTPError(errorType, "linebot")
	}
}

// Shutdown waits for all async event processing to complete.
// It returns an error if the context is canceled before completion.
func (h *Handler) Shutdown(ctx context.Context) error {
	c := make(chan struct{})
	go func() {
		defer close(c)
		h.wg.Wait()
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
