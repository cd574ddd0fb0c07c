package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	channelmodels "kams_hub/internal/api/channel/models"
	convmodels "kams_hub/internal/api/conversation/models"
	"kams_hub/internal/common"
)

func testChannel(botToken string) *channelmodels.Channel {
	return &channelmodels.Channel{
		ID:           primitive.NewObjectID(),
		TenantID:     primitive.NewObjectID(),
		ProviderType: TypeTelegram,
		DisplayName:  "Kênh test",
		Credentials:  channelmodels.ChannelCredentials{BotToken: botToken},
		IsActive:     true,
	}
}

func testConversation(threadID string) *convmodels.Conversation {
	return &convmodels.Conversation{
		ID:               primitive.NewObjectID(),
		ExternalThreadID: threadID,
	}
}

// TestTelegramSendMockCredential kiểm tra token có prefix test: trả về receipt mock,
// không gọi HTTP ra ngoài
func TestTelegramSendMockCredential(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	adapter := NewTelegramAdapter(server.URL, 5*time.Second)
	receipt, err := adapter.Send(context.Background(), testChannel("test:abc"), testConversation("123"), "hello")

	assert.NoError(t, err)
	assert.NotNil(t, receipt)
	assert.Nil(t, receipt.ProviderMessageID, "Receipt mock phải có providerMessageId = nil")
	assert.Equal(t, map[string]interface{}{"mocked": true}, receipt.Raw)
	assert.False(t, called, "Token test không được gọi HTTP ra provider")
}

// TestTelegramSendMissingCredential kiểm tra channel không có bot token
func TestTelegramSendMissingCredential(t *testing.T) {
	adapter := NewTelegramAdapter("http://localhost:1", 5*time.Second)
	receipt, err := adapter.Send(context.Background(), testChannel(""), testConversation("123"), "hello")

	assert.Nil(t, receipt)
	assert.True(t, errors.Is(err, common.ErrMissingCredential))
}

// TestTelegramSendSuccess kiểm tra gọi sendMessage thành công và extract message id
func TestTelegramSendSuccess(t *testing.T) {
	var gotPath string
	var gotPayload map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "result": {"message_id": 999, "chat": {"id": 123}}}`))
	}))
	defer server.Close()

	adapter := NewTelegramAdapter(server.URL, 5*time.Second)
	receipt, err := adapter.Send(context.Background(), testChannel("real-token"), testConversation("123"), "hello")

	assert.NoError(t, err)
	assert.NotNil(t, receipt)
	assert.Equal(t, "/botreal-token/sendMessage", gotPath)
	assert.Equal(t, "123", gotPayload["chat_id"])
	assert.Equal(t, "hello", gotPayload["text"])
	if assert.NotNil(t, receipt.ProviderMessageID) {
		assert.Equal(t, "999", *receipt.ProviderMessageID)
	}
	assert.NotNil(t, receipt.Raw)
	assert.Equal(t, true, receipt.Raw["ok"])
}

// TestTelegramSendRejected kiểm tra response non-success thành ProviderRejected,
// giữ status và body trong Details
func TestTelegramSendRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok": false, "error_code": 400, "description": "Bad Request: chat not found"}`))
	}))
	defer server.Close()

	adapter := NewTelegramAdapter(server.URL, 5*time.Second)
	receipt, err := adapter.Send(context.Background(), testChannel("real-token"), testConversation("123"), "hello")

	assert.Nil(t, receipt, "Send bị từ chối không được trả về receipt")
	var customErr *common.Error
	if assert.ErrorAs(t, err, &customErr) {
		assert.Equal(t, common.ErrCodeProviderSend.Code, customErr.Code.Code)
		details, ok := customErr.Details.(map[string]interface{})
		if assert.True(t, ok) {
			assert.Equal(t, 400, details["status"])
			assert.Equal(t, TypeTelegram, details["provider"])
		}
	}
}

// TestTelegramSendOkFalse kiểm tra HTTP 200 nhưng body ok=false vẫn là từ chối
func TestTelegramSendOkFalse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": false}`))
	}))
	defer server.Close()

	adapter := NewTelegramAdapter(server.URL, 5*time.Second)
	receipt, err := adapter.Send(context.Background(), testChannel("real-token"), testConversation("123"), "hello")

	assert.Nil(t, receipt)
	assert.Error(t, err)
}

// TestTelegramSendUnreachable kiểm tra lỗi transport thành ErrProviderUnreachable
func TestTelegramSendUnreachable(t *testing.T) {
	// Server đóng ngay để mô phỏng provider không kết nối được
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	adapter := NewTelegramAdapter(server.URL, 2*time.Second)
	receipt, err := adapter.Send(context.Background(), testChannel("real-token"), testConversation("123"), "hello")

	assert.Nil(t, receipt)
	assert.True(t, errors.Is(err, common.ErrProviderUnreachable))
}
