// Package provider chứa các adapter gửi tin nhắn ra provider bên ngoài.
// Mỗi loại provider có một implementation của Adapter, được chọn qua registry
// theo providerType thay vì branch theo chuỗi rải rác trong orchestrator.
package provider

import (
	"context"
	"time"

	channelmodels "kams_hub/internal/api/channel/models"
	convmodels "kams_hub/internal/api/conversation/models"
	"kams_hub/internal/common"
	"kams_hub/internal/registry"
)

// Tên các provider được hỗ trợ
const (
	TypeTelegram = "telegram"
)

// DeliveryReceipt là kết quả của một lần gửi thành công.
// ProviderMessageID là nil với send mock, Raw giữ nguyên response body của provider.
type DeliveryReceipt struct {
	ProviderMessageID *string                // ID tin nhắn phía provider
	Raw               map[string]interface{} // Response body nguyên bản
}

// Adapter là capability gửi tin nhắn ra một provider cụ thể.
// Adapter không tự retry; chính sách retry thuộc về caller.
type Adapter interface {
	Send(ctx context.Context, channel *channelmodels.Channel, conversation *convmodels.Conversation, text string) (*DeliveryReceipt, error)
}

// RegistryAdapters chứa các adapter đã đăng ký, key theo providerType
var RegistryAdapters = registry.NewRegistry[Adapter]()

// GetAdapter lấy adapter theo providerType.
// providerType chưa đăng ký adapter trả về ErrUnsupportedProvider.
func GetAdapter(providerType string) (Adapter, error) {
	adapter, exists := RegistryAdapters.Get(providerType)
	if !exists {
		return nil, common.ErrUnsupportedProvider
	}
	return adapter, nil
}

// InitAdapters đăng ký các adapter khả dụng vào registry.
// Gọi một lần khi khởi động process, trước khi nhận request.
func InitAdapters(telegramAPIBaseURL string, sendTimeout time.Duration) error {
	if _, err := RegistryAdapters.Register(TypeTelegram, NewTelegramAdapter(telegramAPIBaseURL, sendTimeout)); err != nil {
		return err
	}
	return nil
}
