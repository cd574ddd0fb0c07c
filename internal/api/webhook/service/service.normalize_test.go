package webhooksvc

import (
	"encoding/json"
	"errors"
	"testing"

	"kams_hub/internal/common"
)

// TestNormalizeTelegramMessage kiểm tra payload message chuẩn của Telegram
func TestNormalizeTelegramMessage(t *testing.T) {
	body := []byte(`{
		"update_id": 10001,
		"message": {
			"message_id": 456,
			"from": {"id": 789, "username": "ngocanh"},
			"chat": {"id": 123, "type": "private"},
			"text": "hi"
		}
	}`)

	result, err := NormalizeInbound("telegram", body)
	if err != nil {
		t.Fatalf("Không mong đợi lỗi, nhận được: %v", err)
	}
	if result == nil {
		t.Fatal("Payload message hợp lệ không được trả về Ignored")
	}
	if result.ExternalThreadID != "123" {
		t.Errorf("ExternalThreadID mong đợi '123', nhận được '%s'", result.ExternalThreadID)
	}
	if result.ProviderMessageID != "456" {
		t.Errorf("ProviderMessageID mong đợi '456', nhận được '%s'", result.ProviderMessageID)
	}
	if result.Text != "hi" {
		t.Errorf("Text mong đợi 'hi', nhận được '%s'", result.Text)
	}
	if result.Participants.ExternalUserID != "789" {
		t.Errorf("ExternalUserID mong đợi '789', nhận được '%s'", result.Participants.ExternalUserID)
	}
	if result.Participants.ExternalUsername != "ngocanh" {
		t.Errorf("ExternalUsername mong đợi 'ngocanh', nhận được '%s'", result.Participants.ExternalUsername)
	}
	if result.Raw == nil {
		t.Error("Raw phải giữ nguyên payload đã parse")
	}
}

// TestNormalizeTelegramEditedMessage kiểm tra edited_message cũng được nhận
func TestNormalizeTelegramEditedMessage(t *testing.T) {
	body := []byte(`{
		"update_id": 10002,
		"edited_message": {
			"message_id": 457,
			"chat": {"id": 123},
			"text": "sua lai tin nhan"
		}
	}`)

	result, err := NormalizeInbound("telegram", body)
	if err != nil {
		t.Fatalf("Không mong đợi lỗi, nhận được: %v", err)
	}
	if result == nil {
		t.Fatal("edited_message không được trả về Ignored")
	}
	if result.ProviderMessageID != "457" {
		t.Errorf("ProviderMessageID mong đợi '457', nhận được '%s'", result.ProviderMessageID)
	}
}

// TestNormalizeTelegramIgnoredUpdate kiểm tra update không phải tin nhắn được bỏ qua,
// không phải lỗi (Telegram gửi nhiều loại update phải ack)
func TestNormalizeTelegramIgnoredUpdate(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"callback_query", `{"update_id": 1, "callback_query": {"id": "abc"}}`},
		{"my_chat_member", `{"update_id": 2, "my_chat_member": {"chat": {"id": 5}}}`},
		{"update rỗng", `{"update_id": 3}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := NormalizeInbound("telegram", []byte(tc.body))
			if err != nil {
				t.Fatalf("Update không phải tin nhắn phải được bỏ qua, không phải lỗi: %v", err)
			}
			if result != nil {
				t.Error("Mong đợi Ignored (nil), nhận được kết quả")
			}
		})
	}
}

// TestNormalizeTelegramMalformed kiểm tra payload hỏng trả về ErrBadPayload
func TestNormalizeTelegramMalformed(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"không phải JSON", `not-json{{`},
		{"thiếu message_id", `{"message": {"chat": {"id": 123}, "text": "hi"}}`},
		{"thiếu chat", `{"message": {"message_id": 456, "text": "hi"}}`},
		{"thiếu chat id", `{"message": {"message_id": 456, "chat": {}, "text": "hi"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := NormalizeInbound("telegram", []byte(tc.body))
			if !errors.Is(err, common.ErrBadPayload) {
				t.Fatalf("Mong đợi ErrBadPayload, nhận được: %v", err)
			}
			if result != nil {
				t.Error("Payload hỏng không được trả về kết quả")
			}
		})
	}
}

// TestNormalizeTelegramTextAbsent kiểm tra text vắng mặt thành chuỗi rỗng, không bao giờ null
func TestNormalizeTelegramTextAbsent(t *testing.T) {
	body := []byte(`{"message": {"message_id": 458, "chat": {"id": 123}, "sticker": {"file_id": "xyz"}}}`)

	result, err := NormalizeInbound("telegram", body)
	if err != nil {
		t.Fatalf("Không mong đợi lỗi: %v", err)
	}
	if result == nil {
		t.Fatal("Tin nhắn sticker vẫn là tin nhắn, không được Ignored")
	}
	if result.Text != "" {
		t.Errorf("Text vắng mặt phải là chuỗi rỗng, nhận được '%s'", result.Text)
	}
}

// TestNormalizeStringChatID kiểm tra chat id dạng chuỗi cũng được stringify đúng
func TestNormalizeStringChatID(t *testing.T) {
	body := []byte(`{"message": {"message_id": "456", "chat": {"id": "123"}, "text": "hi"}}`)

	result, err := NormalizeInbound("telegram", body)
	if err != nil {
		t.Fatalf("Không mong đợi lỗi: %v", err)
	}
	if result.ExternalThreadID != "123" || result.ProviderMessageID != "456" {
		t.Errorf("Stringify sai: thread '%s', messageId '%s'", result.ExternalThreadID, result.ProviderMessageID)
	}
}

// TestNormalizeLargeChatID kiểm tra chat id lớn không bị mất chính xác qua float64
func TestNormalizeLargeChatID(t *testing.T) {
	body := []byte(`{"message": {"message_id": 1, "chat": {"id": -1001234567890123}, "text": "hi"}}`)

	result, err := NormalizeInbound("telegram", body)
	if err != nil {
		t.Fatalf("Không mong đợi lỗi: %v", err)
	}
	if result.ExternalThreadID != "-1001234567890123" {
		t.Errorf("Chat id lớn bị sai lệch: '%s'", result.ExternalThreadID)
	}
}

// TestNormalizeUnsupportedProvider kiểm tra provider chưa hỗ trợ
func TestNormalizeUnsupportedProvider(t *testing.T) {
	_, err := NormalizeInbound("zalo", []byte(`{}`))
	if !errors.Is(err, common.ErrUnsupportedProvider) {
		t.Fatalf("Mong đợi ErrUnsupportedProvider, nhận được: %v", err)
	}
}

// TestStringifyField kiểm tra stringify id: chỉ chuỗi và json.Number có giá trị,
// các kiểu khác (kể cả float64, vì decoder luôn UseNumber) thành chuỗi rỗng
func TestStringifyField(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want string
	}{
		{"chuỗi", "123", "123"},
		{"json.Number", json.Number("-1001234567890123"), "-1001234567890123"},
		{"float64 không bao giờ xuất hiện", float64(456), ""},
		{"nil", nil, ""},
		{"object", map[string]interface{}{}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stringifyField(tc.in); got != tc.want {
				t.Errorf("stringifyField(%v) mong đợi '%s', nhận được '%s'", tc.in, tc.want, got)
			}
		})
	}
}
