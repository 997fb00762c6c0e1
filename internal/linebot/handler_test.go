package linebot

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/campus-navigator/internal/assistant"
	"github.com/garyellow/campus-navigator/internal/ctxutil"
	"github.com/garyellow/campus-navigator/internal/logger"
	"github.com/garyellow/campus-navigator/internal/metrics"
)

const testSecret = "test_channel_secret"

type fakeReplier struct {
	mu       sync.Mutex
	requests []*messaging_api.ReplyMessageRequest
}

func (f *fakeReplier) ReplyMessage(req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return &messaging_api.ReplyMessageResponse{}, nil
}

type fakeAssistant struct {
	mu       sync.Mutex
	sessions []string
	channels []string
	reply    assistant.Reply
}

func (f *fakeAssistant) Reply(ctx context.Context, sessionID, _ string) assistant.Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, sessionID)
	f.channels = append(f.channels, ctxutil.GetChannel(ctx))
	return f.reply
}

func newTestHandler(t *testing.T, a Assistant) (*Handler, *fakeReplier) {
	t.Helper()
	replier := &fakeReplier{}
	h, err := NewHandler(HandlerConfig{
		ChannelSecret: testSecret,
		Assistant:     a,
		Metrics:       metrics.New(prometheus.NewRegistry()),
		Logger:        logger.NewWithWriter("error", io.Discard),
		Client:        replier,
	})
	require.NoError(t, err)
	return h, replier
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func serve(h *Handler, body []byte, signature string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/webhook/line", h.Handle)

	req := httptest.NewRequest(http.MethodPost, "/webhook/line", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Line-Signature", signature)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandle_InvalidSignature(t *testing.T) {
	t.Parallel()
	h, replier := newTestHandler(t, &fakeAssistant{})

	w := serve(h, []byte(`{"events":[]}`), "invalid")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, replier.requests)
}

func TestHandle_TextMessageReplies(t *testing.T) {
	t.Parallel()
	a := &fakeAssistant{reply: assistant.Reply{
		Text:           "I found multiple teachers named Sneha.",
		AwaitingChoice: true,
		ChoiceOptions:  []string{"Sneha Kapoor (Physics)", "Sneha Verma (Electronics)"},
	}}
	h, replier := newTestHandler(t, a)

	body := []byte(`{"destination":"Ubot","events":[{
		"type":"message","mode":"active","timestamp":1700000000000,
		"source":{"type":"user","userId":"U123"},
		"webhookEventId":"01HEVENT","deliveryContext":{"isRedelivery":false},
		"replyToken":"reply-token-0123456789",
		"message":{"type":"text","id":"1","quoteToken":"q","text":"Who is Sneha?"}
	}]}`)

	w := serve(h, body, sign(body))
	require.Equal(t, http.StatusOK, w.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.Shutdown(ctx))

	assert.Equal(t, []string{"line:U123"}, a.sessions)
	assert.Equal(t, []string{Channel}, a.channels)

	require.Len(t, replier.requests, 1)
	req := replier.requests[0]
	assert.Equal(t, "reply-token-0123456789", req.ReplyToken)
	require.Len(t, req.Messages, 1)
	msg, ok := req.Messages[0].(*messaging_api.TextMessage)
	require.True(t, ok)
	assert.Equal(t, "I found multiple teachers named Sneha.", msg.Text)
	require.NotNil(t, msg.QuickReply)
	assert.Len(t, msg.QuickReply.Items, 3) // two options plus cancel
}

func TestBuildMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		reply     assistant.Reply
		wantItems []string
	}{
		{name: "plain", reply: assistant.Reply{Text: "Hello!"}},
		{
			name:      "step",
			reply:     assistant.Reply{Text: "Next: turn left.", AwaitingConfirmation: true},
			wantItems: []string{"Reached", "Cancel"},
		},
		{
			name:      "choice",
			reply:     assistant.Reply{Text: "Which one?", AwaitingChoice: true, ChoiceOptions: []string{"A", "B"}},
			wantItems: []string{"1", "2", "Cancel"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msgs := BuildMessages(tt.reply)
			require.Len(t, msgs, 1)
			msg := msgs[0].(*messaging_api.TextMessage)
			assert.Equal(t, tt.reply.Text, msg.Text)
			if tt.wantItems == nil {
				assert.Nil(t, msg.QuickReply)
				return
			}
			require.NotNil(t, msg.QuickReply)
			var texts []string
			for _, item := range msg.QuickReply.Items {
				texts = append(texts, item.Action.(*messaging_api.MessageAction).Text)
			}
			assert.Equal(t, tt.wantItems, texts)
		})
	}
}

func TestSessionID(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "line:U1", SessionID(webhook.UserSource{UserId: "U1"}))
	assert.Equal(t, "line:C1", SessionID(webhook.GroupSource{GroupId: "C1", UserId: "U1"}))
	assert.Equal(t, "line:R1", SessionID(webhook.RoomSource{RoomId: "R1"}))
	assert.Empty(t, SessionID(webhook.UserSource{}))
	assert.Empty(t, SessionID(nil))
}
