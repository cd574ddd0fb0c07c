package convmodels

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participants là thông tin best-effort về người tham gia phía provider.
// Từng trường được merge theo kiểu last-write-wins khi có hint mới không rỗng.
type Participants struct {
	ExternalUserID   string `json:"externalUserId,omitempty" bson:"externalUserId,omitempty"`     // ID người dùng phía provider
	ExternalUsername string `json:"externalUsername,omitempty" bson:"externalUsername,omitempty"` // Username phía provider
}

// Conversation là nhóm tin nhắn theo một thread bên ngoài trên một channel.
// Invariant: bộ ba (tenantId, channelId, externalThreadId) là duy nhất,
// được đảm bảo bằng unique index chứ không phải lock trong ứng dụng.
// Conversation được tạo lazy khi có tin nhắn đầu tiên và không bao giờ bị xóa bởi hub.
type Conversation struct {
	ID               primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`        // ID của cuộc hội thoại
	TenantID         primitive.ObjectID `json:"tenantId" bson:"tenantId"`                 // Tenant sở hữu
	ChannelID        primitive.ObjectID `json:"channelId" bson:"channelId"`               // Channel chứa thread
	ExternalThreadID string             `json:"externalThreadId" bson:"externalThreadId"` // Định danh thread phía provider (chat id)
	Participants     Participants       `json:"participants" bson:"participants"`         // Thông tin người tham gia
	LastMessageAt    int64              `json:"lastMessageAt" bson:"lastMessageAt"`       // Thời điểm tin nhắn gần nhất (sort list view)

	CreatedAt int64 `json:"createdAt" bson:"createdAt"` // Thời gian tạo
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"` // Thời gian cập nhật
}
