package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	channelmodels "kams_hub/internal/api/channel/models"
	convmodels "kams_hub/internal/api/conversation/models"
	"kams_hub/internal/common"
	"kams_hub/internal/logger"
)

// MockCredentialPrefix đánh dấu bot token test: gặp prefix này adapter trả về
// receipt mock deterministic thay vì gọi Telegram API thật.
const MockCredentialPrefix = "test:"

// TelegramAdapter gửi tin nhắn qua Telegram Bot API
type TelegramAdapter struct {
	apiBaseURL string
	client     *http.Client
}

// NewTelegramAdapter tạo mới TelegramAdapter.
// apiBaseURL override được khi test (mặc định https://api.telegram.org).
func NewTelegramAdapter(apiBaseURL string, timeout time.Duration) *TelegramAdapter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TelegramAdapter{
		apiBaseURL: strings.TrimRight(apiBaseURL, "/"),
		client:     &http.Client{Timeout: timeout},
	}
}

// telegramSendResponse là phần cần đọc từ response của sendMessage
type telegramSendResponse struct {
	Ok     bool `json:"ok"`
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// Send gửi text tới chat được định danh bởi conversation.ExternalThreadID.
// Adapter không retry; lỗi transport là ErrProviderUnreachable, response không
// thành công là ProviderRejected kèm status và body để phân biệt lỗi cấu hình
// với lỗi tạm thời.
func (a *TelegramAdapter) Send(ctx context.Context, channel *channelmodels.Channel, conversation *convmodels.Conversation, text string) (*DeliveryReceipt, error) {
	log := logger.GetAppLogger()

	botToken := channel.Credentials.BotToken
	if botToken == "" {
		return nil, common.ErrMissingCredential
	}

	// Token test: không gọi provider thật, trả về receipt mock
	if strings.HasPrefix(botToken, MockCredentialPrefix) {
		log.WithFields(map[string]interface{}{
			"channelId": channel.ID.Hex(),
			"chatId":    conversation.ExternalThreadID,
		}).Info("📱 [TELEGRAM] Token test, trả về receipt mock")
		return &DeliveryReceipt{
			ProviderMessageID: nil,
			Raw:               map[string]interface{}{"mocked": true},
		}, nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", a.apiBaseURL, botToken)

	payload := map[string]interface{}{
		"chat_id": conversation.ExternalThreadID,
		"text":    text,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, common.ErrInvalidFormat
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, common.ErrProviderUnreachable
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		log.WithError(err).WithFields(map[string]interface{}{
			"channelId": channel.ID.Hex(),
			"chatId":    conversation.ExternalThreadID,
		}).Error("📱 [TELEGRAM] Lỗi khi gọi Telegram API")
		return nil, common.ErrProviderUnreachable
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		log.WithFields(map[string]interface{}{
			"channelId":  channel.ID.Hex(),
			"chatId":     conversation.ExternalThreadID,
			"statusCode": resp.StatusCode,
			"response":   string(bodyBytes),
		}).Error("📱 [TELEGRAM] Telegram API trả về lỗi")
		return nil, common.NewProviderRejectedError(TypeTelegram, resp.StatusCode, string(bodyBytes))
	}

	var parsed telegramSendResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil || !parsed.Ok {
		log.WithFields(map[string]interface{}{
			"channelId": channel.ID.Hex(),
			"response":  string(bodyBytes),
		}).Error("📱 [TELEGRAM] Response không hợp lệ từ Telegram API")
		return nil, common.NewProviderRejectedError(TypeTelegram, resp.StatusCode, string(bodyBytes))
	}

	// Giữ nguyên response body cho trường raw của message
	var raw map[string]interface{}
	_ = json.Unmarshal(bodyBytes, &raw)

	providerMessageID := strconv.FormatInt(parsed.Result.MessageID, 10)

	log.WithFields(map[string]interface{}{
		"channelId":         channel.ID.Hex(),
		"chatId":            conversation.ExternalThreadID,
		"providerMessageId": providerMessageID,
	}).Info("📱 [TELEGRAM] Gửi tin nhắn thành công")

	return &DeliveryReceipt{
		ProviderMessageID: &providerMessageID,
		Raw:               raw,
	}, nil
}
