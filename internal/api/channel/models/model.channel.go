package channelmodels

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChannelCredentials chứa các secret theo từng loại provider.
// Chỉ Provider Adapter tương ứng mới đọc các trường này.
type ChannelCredentials struct {
	BotToken string `json:"botToken,omitempty" bson:"botToken,omitempty"` // Bot token (Telegram)
}

// Channel đại diện cho một kết nối của tenant tới một provider bên ngoài.
// ExternalID chỉ có ý nghĩa trong phạm vi (tenantId, providerType).
type Channel struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"` // ID của channel
	TenantID     primitive.ObjectID `json:"tenantId" bson:"tenantId"`          // Tenant sở hữu channel
	ProviderType string             `json:"providerType" bson:"providerType"`  // Loại provider: telegram | messenger
	DisplayName  string             `json:"displayName" bson:"displayName"`    // Tên hiển thị cho operator
	ExternalID   string             `json:"externalId" bson:"externalId"`      // Định danh phía provider (vd: bot id)
	Credentials  ChannelCredentials `json:"-" bson:"credentials"`              // Secret bundle, không trả về qua API
	IsActive     bool               `json:"isActive" bson:"isActive"`          // Channel còn nhận/gửi tin hay không

	CreatedAt int64 `json:"createdAt" bson:"createdAt"` // Thời gian tạo
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"` // Thời gian cập nhật
}
