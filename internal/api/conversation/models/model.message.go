package convmodels

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hướng của message trong ledger
const (
	DirectionInbound  = "inbound"  // Tin nhắn từ provider vào hub
	DirectionOutbound = "outbound" // Tin nhắn operator gửi ra provider
)

// Message là một dòng trong ledger append-only của cuộc hội thoại.
// Invariant: tenantId của message luôn khớp với tenantId của conversation chứa nó;
// pairing chéo tenant bị chặn từ trước khi ghi.
type Message struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`  // ID của message
	TenantID       primitive.ObjectID `json:"tenantId" bson:"tenantId"`           // Tenant sở hữu
	ChannelID      primitive.ObjectID `json:"channelId" bson:"channelId"`         // Channel nguồn/đích
	ConversationID primitive.ObjectID `json:"conversationId" bson:"conversationId"` // Cuộc hội thoại chứa message
	Direction      string             `json:"direction" bson:"direction"`         // inbound | outbound
	Provider       string             `json:"provider" bson:"provider"`           // Loại provider (telegram, ...)

	// ProviderMessageID là id phía provider; null cho send mock.
	// Dedup key (tenantId, channelId, providerMessageId) dùng partial unique index
	// ($exists: true) nên trường này phải vắng mặt hẳn (không phải chuỗi rỗng)
	// khi không có giá trị.
	ProviderMessageID *string                `json:"providerMessageId" bson:"providerMessageId,omitempty"`
	Text              string                 `json:"text" bson:"text"`                // Nội dung văn bản (chuỗi rỗng nếu không có, không bao giờ null)
	Raw               map[string]interface{} `json:"raw,omitempty" bson:"raw,omitempty"` // Payload gốc của provider, giữ nguyên cho audit/debug

	CreatedAt int64 `json:"createdAt" bson:"createdAt"` // Thời gian ghi vào ledger
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"` // Thời gian cập nhật (ledger không sửa, chỉ để đồng nhất schema)
}
