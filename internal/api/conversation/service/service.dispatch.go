package conversationsvc

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	channelmodels "kams_hub/internal/api/channel/models"
	channelsvc "kams_hub/internal/api/channel/service"
	convmodels "kams_hub/internal/api/conversation/models"
	"kams_hub/internal/common"
	"kams_hub/internal/logger"
	"kams_hub/internal/provider"
)

// conversationStore và các interface dưới đây là phần DispatchService cần
// từ các service xung quanh, tách ra để test orchestrator bằng fake store.
type conversationStore interface {
	FindByIdScoped(ctx context.Context, tenantID, conversationID primitive.ObjectID) (convmodels.Conversation, error)
	TouchLastMessage(ctx context.Context, tenantID, conversationID primitive.ObjectID, at int64) error
}

type channelStore interface {
	FindByIdScoped(ctx context.Context, tenantID, channelID primitive.ObjectID) (channelmodels.Channel, error)
}

type messageStore interface {
	AppendOutbound(ctx context.Context, message convmodels.Message) (convmodels.Message, error)
}

type adapterResolver func(providerType string) (provider.Adapter, error)

// DispatchService điều phối một lần operator gửi trả lời:
// validate → send qua adapter → append ledger → touch conversation.
type DispatchService struct {
	conversations conversationStore
	channels      channelStore
	messages      messageStore
	adapters      adapterResolver
}

// NewDispatchService tạo mới DispatchService nối với các service thật
func NewDispatchService() (*DispatchService, error) {
	conversationService, err := NewConversationService()
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation service: %v", err)
	}
	channelService, err := channelsvc.NewChannelService()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel service: %v", err)
	}
	messageService, err := NewMessageService()
	if err != nil {
		return nil, fmt.Errorf("failed to create message service: %v", err)
	}
	return &DispatchService{
		conversations: conversationService,
		channels:      channelService,
		messages:      messageService,
		adapters:      provider.GetAdapter,
	}, nil
}

// DispatchReply gửi trả lời của operator vào cuộc hội thoại.
// Thứ tự nghiêm ngặt: send phải được provider xác nhận (hoặc mock) TRƯỚC khi
// ghi ledger. Send fault thì không có dòng Message nào được ghi, ledger chỉ
// phản ánh những gì thật sự đã rời khỏi hệ thống. Sau khi append thành công,
// touch lastMessageAt là best-effort: miss chỉ làm list view cũ đi chút,
// không phá invariant nào.
func (s *DispatchService) DispatchReply(ctx context.Context, tenantID, conversationID primitive.ObjectID, text string) (convmodels.Message, error) {
	var zero convmodels.Message
	log := logger.WithModule("dispatch")

	text = strings.TrimSpace(text)
	if text == "" {
		return zero, common.ErrEmptyText
	}

	// Cả hai lookup đều tenant-scoped: id đúng nhưng khác tenant trả về
	// NotFound y như id không tồn tại, không lộ thông tin
	conversation, err := s.conversations.FindByIdScoped(ctx, tenantID, conversationID)
	if err != nil {
		return zero, err
	}

	channel, err := s.channels.FindByIdScoped(ctx, tenantID, conversation.ChannelID)
	if err != nil {
		return zero, err
	}

	adapter, err := s.adapters(channel.ProviderType)
	if err != nil {
		return zero, err
	}

	receipt, err := adapter.Send(ctx, &channel, &conversation, text)
	if err != nil {
		log.WithError(err).WithFields(map[string]interface{}{
			"tenantId":       tenantID.Hex(),
			"conversationId": conversationID.Hex(),
			"provider":       channel.ProviderType,
		}).Error("📤 [DISPATCH] Send thất bại, không ghi ledger")
		return zero, err
	}

	message := convmodels.Message{
		TenantID:          tenantID,
		ChannelID:         channel.ID,
		ConversationID:    conversation.ID,
		Provider:          channel.ProviderType,
		ProviderMessageID: receipt.ProviderMessageID,
		Text:              text,
		Raw:               receipt.Raw,
	}

	created, err := s.messages.AppendOutbound(ctx, message)
	if err != nil {
		// Send đã đi nhưng append fail: gap hiếm, chấp nhận và log đủ ngữ cảnh
		// thay vì recovery kiểu distributed transaction
		log.WithError(err).WithFields(map[string]interface{}{
			"tenantId":       tenantID.Hex(),
			"conversationId": conversationID.Hex(),
			"provider":       channel.ProviderType,
		}).Error("📤 [DISPATCH] Send thành công nhưng ghi ledger thất bại")
		return zero, err
	}

	if err := s.conversations.TouchLastMessage(ctx, tenantID, conversation.ID, created.CreatedAt); err != nil {
		log.WithError(err).WithFields(map[string]interface{}{
			"conversationId": conversationID.Hex(),
		}).Warn("📤 [DISPATCH] Không cập nhật được lastMessageAt")
	}

	return created, nil
}
