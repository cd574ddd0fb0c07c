package webhookmodels

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trạng thái xử lý của một webhook đã nhận
const (
	WebhookStatusAccepted = "accepted" // Đã ghi message vào ledger
	WebhookStatusIgnored  = "ignored"  // Update không phải message, ack và bỏ qua
	WebhookStatusRejected = "rejected" // Payload hỏng hoặc channel không tồn tại
)

// WebhookLog là audit log cho mọi webhook đi vào hub, kể cả bị từ chối.
// RawBody giữ nguyên văn để debug khi provider đổi format payload.
type WebhookLog struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`          // ID của log
	TenantID   primitive.ObjectID `json:"tenantId,omitempty" bson:"tenantId,omitempty"` // Tenant suy ra từ channel (rỗng nếu channel không tồn tại)
	ChannelID  primitive.ObjectID `json:"channelId,omitempty" bson:"channelId,omitempty"` // Channel nhận webhook
	Provider   string             `json:"provider" bson:"provider"`                   // Loại provider từ path
	Status     string             `json:"status" bson:"status"`                       // accepted | ignored | rejected
	Reason     string             `json:"reason,omitempty" bson:"reason,omitempty"`   // Lý do khi rejected
	RawBody    string             `json:"rawBody" bson:"rawBody"`                     // Payload nguyên văn
	ReceivedAt int64              `json:"receivedAt" bson:"receivedAt"`               // Thời điểm nhận

	CreatedAt int64 `json:"createdAt" bson:"createdAt"` // Thời gian tạo
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"` // Thời gian cập nhật
}
