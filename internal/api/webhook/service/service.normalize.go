// Package webhooksvc chứa normalizer webhook và pipeline ingest tin nhắn inbound.
package webhooksvc

import (
	"bytes"
	"encoding/json"

	convmodels "kams_hub/internal/api/conversation/models"
	webhookdto "kams_hub/internal/api/webhook/dto"
	"kams_hub/internal/common"
	"kams_hub/internal/provider"
)

// NormalizeInbound chuẩn hóa webhook payload của provider thành sự kiện inbound.
// Hàm thuần: không I/O, không side effect, để test từng shape payload độc lập.
//
// Returns:
//   - (*NormalizedInbound, nil): payload là tin nhắn hợp lệ
//   - (nil, nil): update không phải tin nhắn, ack và bỏ qua (Ignored)
//   - (nil, ErrBadPayload): payload hỏng hoặc thiếu trường bắt buộc (Malformed)
func NormalizeInbound(providerType string, rawBody []byte) (*webhookdto.NormalizedInbound, error) {
	switch providerType {
	case provider.TypeTelegram:
		return normalizeTelegram(rawBody)
	default:
		return nil, common.ErrUnsupportedProvider
	}
}

// normalizeTelegram xử lý update của Telegram Bot API.
// Telegram gửi nhiều loại update (callback_query, my_chat_member, ...);
// chỉ message và edited_message là tin nhắn, còn lại phải ack rồi bỏ qua.
func normalizeTelegram(rawBody []byte) (*webhookdto.NormalizedInbound, error) {
	// UseNumber để chat id / message id lớn không bị mất chính xác qua float64
	var payload map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(rawBody))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, common.ErrBadPayload
	}

	message, ok := payload["message"].(map[string]interface{})
	if !ok {
		message, ok = payload["edited_message"].(map[string]interface{})
	}
	if !ok {
		// Update không phải tin nhắn: Ignored, không phải lỗi
		return nil, nil
	}

	providerMessageID := stringifyField(message["message_id"])
	if providerMessageID == "" {
		return nil, common.ErrBadPayload
	}

	var externalThreadID string
	if chat, ok := message["chat"].(map[string]interface{}); ok {
		externalThreadID = stringifyField(chat["id"])
	}
	if externalThreadID == "" {
		return nil, common.ErrBadPayload
	}

	var participants convmodels.Participants
	if from, ok := message["from"].(map[string]interface{}); ok {
		participants.ExternalUserID = stringifyField(from["id"])
		if username, ok := from["username"].(string); ok {
			participants.ExternalUsername = username
		}
	}

	text, _ := message["text"].(string)

	return &webhookdto.NormalizedInbound{
		ExternalThreadID:  externalThreadID,
		ProviderMessageID: providerMessageID,
		Text:              text,
		Participants:      participants,
		Raw:               payload,
	}, nil
}

// stringifyField chuyển một giá trị id từ JSON (số hoặc chuỗi) thành chuỗi.
// Decoder luôn dùng UseNumber nên số chỉ xuất hiện dưới dạng json.Number.
func stringifyField(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case json.Number:
		return value.String()
	default:
		return ""
	}
}
