package channeldto

// ChannelCredentialsInput nhận secret bundle từ request tạo/cập nhật channel
type ChannelCredentialsInput struct {
	BotToken string `json:"botToken" validate:"omitempty,min=1"` // Bot token (Telegram)
}

// ChannelCreateInput là dữ liệu đầu vào khi tạo channel
type ChannelCreateInput struct {
	ProviderType string                  `json:"providerType" validate:"required,provider_type"` // telegram | messenger
	DisplayName  string                  `json:"displayName" validate:"required,no_xss"`         // Tên hiển thị
	ExternalID   string                  `json:"externalId" validate:"required"`                 // Định danh phía provider
	Credentials  ChannelCredentialsInput `json:"credentials"`                                    // Secret bundle
	IsActive     *bool                   `json:"isActive"`                                       // Mặc định true nếu không gửi
}

// ChannelUpdateInput là dữ liệu đầu vào khi cập nhật channel
type ChannelUpdateInput struct {
	DisplayName *string                  `json:"displayName" validate:"omitempty,no_xss"` // Tên hiển thị mới
	Credentials *ChannelCredentialsInput `json:"credentials"`                             // Thay secret bundle
	IsActive    *bool                    `json:"isActive"`                                // Bật/tắt channel
}
