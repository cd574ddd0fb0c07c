package webhookdto

import (
	convmodels "kams_hub/internal/api/conversation/models"
)

// NormalizedInbound là kết quả chuẩn hóa một webhook payload thành sự kiện
// tin nhắn inbound, độc lập với format riêng của từng provider.
type NormalizedInbound struct {
	ExternalThreadID  string                  // Định danh thread (chat id), đã stringify
	ProviderMessageID string                  // ID message phía provider, đã stringify
	Text              string                  // Nội dung văn bản, chuỗi rỗng nếu không có
	Participants      convmodels.Participants // Hint người gửi, best-effort
	Raw               map[string]interface{}  // Payload đã parse, giữ nguyên cho audit
}
