package convdto

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	convmodels "kams_hub/internal/api/conversation/models"
)

// ChannelSnapshot là bản denormalized của channel nhúng trong list view,
// đủ cho operator nhận diện nguồn hội thoại mà không cần query thêm
type ChannelSnapshot struct {
	ID          primitive.ObjectID `json:"id"`          // ID của channel
	Type        string             `json:"type"`        // Loại provider
	DisplayName string             `json:"displayName"` // Tên hiển thị
}

// ConversationSummary là một dòng trong danh sách hội thoại của operator
type ConversationSummary struct {
	ID                 primitive.ObjectID     `json:"id"`                 // ID cuộc hội thoại
	ExternalThreadID   string                 `json:"externalThreadId"`   // Định danh thread phía provider
	Participants       convmodels.Participants `json:"participants"`      // Người tham gia
	Channel            ChannelSnapshot        `json:"channel"`            // Snapshot channel
	LastMessagePreview string                 `json:"lastMessagePreview"` // Text của message gần nhất
	LastMessageAt      int64                  `json:"lastMessageAt"`      // Thời điểm message gần nhất
	CreatedAt          int64                  `json:"createdAt"`          // Thời gian tạo hội thoại
}

// ConversationListResponse là body trả về của danh sách hội thoại.
// NextCursor luôn null: cursor pagination chưa triển khai, giữ chỗ cho client.
type ConversationListResponse struct {
	Items      []ConversationSummary `json:"items"`
	NextCursor interface{}           `json:"nextCursor"`
}

// MessageListResponse là body trả về của danh sách message trong một hội thoại
type MessageListResponse struct {
	Items      []convmodels.Message `json:"items"`
	NextCursor interface{}          `json:"nextCursor"`
}

// SendReplyInput là dữ liệu đầu vào khi operator gửi trả lời.
// Text được trim ở orchestrator; rỗng sau trim bị từ chối.
type SendReplyInput struct {
	Text string `json:"text" validate:"required"`
}
