package webhooksvc

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	channelmodels "kams_hub/internal/api/channel/models"
	channelsvc "kams_hub/internal/api/channel/service"
	convmodels "kams_hub/internal/api/conversation/models"
	conversationsvc "kams_hub/internal/api/conversation/service"
	webhookmodels "kams_hub/internal/api/webhook/models"
	"kams_hub/internal/common"
	"kams_hub/internal/logger"
)

// Các interface dưới đây là phần pipeline ingest cần từ các service thật,
// tách ra để test pipeline bằng fake store (cùng cách DispatchService làm).
type channelStore interface {
	FindActiveById(ctx context.Context, channelID primitive.ObjectID) (channelmodels.Channel, error)
}

type conversationStore interface {
	Resolve(ctx context.Context, tenantID, channelID primitive.ObjectID, externalThreadID string, hint convmodels.Participants) (convmodels.Conversation, error)
}

type messageStore interface {
	AppendInbound(ctx context.Context, message convmodels.Message) (convmodels.Message, bool, error)
}

type webhookLogStore interface {
	Save(ctx context.Context, log webhookmodels.WebhookLog) (webhookmodels.WebhookLog, error)
}

// IngestResult là kết quả xử lý một webhook inbound
type IngestResult struct {
	Ignored      bool                    // Update không phải tin nhắn, đã ack và bỏ qua
	Duplicated   bool                    // Redelivery, message đã tồn tại trong ledger
	Conversation convmodels.Conversation // Cuộc hội thoại đã resolve (rỗng nếu Ignored)
	Message      convmodels.Message      // Message đã ghi hoặc đã tồn tại (rỗng nếu Ignored)
}

// IngestService là pipeline xử lý webhook inbound:
// resolve channel → normalize → resolve conversation → append ledger → audit log.
type IngestService struct {
	channelService      channelStore
	conversationService conversationStore
	messageService      messageStore
	webhookLogService   webhookLogStore
}

// NewIngestService tạo mới IngestService
func NewIngestService() (*IngestService, error) {
	channelService, err := channelsvc.NewChannelService()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel service: %v", err)
	}
	conversationService, err := conversationsvc.NewConversationService()
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation service: %v", err)
	}
	messageService, err := conversationsvc.NewMessageService()
	if err != nil {
		return nil, fmt.Errorf("failed to create message service: %v", err)
	}
	webhookLogService, err := NewWebhookLogService()
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook log service: %v", err)
	}
	return &IngestService{
		channelService:      channelService,
		conversationService: conversationService,
		messageService:      messageService,
		webhookLogService:   webhookLogService,
	}, nil
}

// Ingest xử lý một webhook inbound cho channel được chỉ định trong path.
// Tenant được suy ra TỪ channel đã resolve, không bao giờ từ payload.
// Chỉ trả về nil error sau khi message đã ghi bền vào ledger (hoặc Ignored/redelivery);
// mọi thất bại sớm hơn đều surface nguyên nhân gốc cho caller.
func (s *IngestService) Ingest(ctx context.Context, providerType string, channelID primitive.ObjectID, rawBody []byte) (*IngestResult, error) {
	log := logger.WithModule("webhook")

	channel, err := s.channelService.FindActiveById(ctx, channelID)
	if err != nil {
		s.saveLog(ctx, webhookmodels.WebhookLog{
			ChannelID: channelID,
			Provider:  providerType,
			Status:    webhookmodels.WebhookStatusRejected,
			Reason:    "channel not found",
			RawBody:   string(rawBody),
		})
		return nil, err
	}

	// Path provider phải khớp với provider của channel; lệch coi như channel
	// không tồn tại, không tiết lộ channel này thuộc provider nào
	if channel.ProviderType != providerType {
		s.saveLog(ctx, webhookmodels.WebhookLog{
			TenantID:  channel.TenantID,
			ChannelID: channelID,
			Provider:  providerType,
			Status:    webhookmodels.WebhookStatusRejected,
			Reason:    "provider type mismatch",
			RawBody:   string(rawBody),
		})
		return nil, common.ErrNotFound
	}

	normalized, err := NormalizeInbound(providerType, rawBody)
	if err != nil {
		s.saveLog(ctx, webhookmodels.WebhookLog{
			TenantID:  channel.TenantID,
			ChannelID: channelID,
			Provider:  providerType,
			Status:    webhookmodels.WebhookStatusRejected,
			Reason:    "bad payload",
			RawBody:   string(rawBody),
		})
		if errors.Is(err, common.ErrUnsupportedProvider) {
			return nil, err
		}
		return nil, common.ErrBadPayload
	}
	if normalized == nil {
		// Update không phải tin nhắn: ack và bỏ qua
		s.saveLog(ctx, webhookmodels.WebhookLog{
			TenantID:  channel.TenantID,
			ChannelID: channelID,
			Provider:  providerType,
			Status:    webhookmodels.WebhookStatusIgnored,
			RawBody:   string(rawBody),
		})
		return &IngestResult{Ignored: true}, nil
	}

	conversation, err := s.conversationService.Resolve(ctx, channel.TenantID, channel.ID, normalized.ExternalThreadID, normalized.Participants)
	if err != nil {
		s.saveLog(ctx, webhookmodels.WebhookLog{
			TenantID:  channel.TenantID,
			ChannelID: channelID,
			Provider:  providerType,
			Status:    webhookmodels.WebhookStatusRejected,
			Reason:    "conversation resolve failed",
			RawBody:   string(rawBody),
		})
		return nil, err
	}

	providerMessageID := normalized.ProviderMessageID
	message := convmodels.Message{
		TenantID:          channel.TenantID,
		ChannelID:         channel.ID,
		ConversationID:    conversation.ID,
		Provider:          providerType,
		ProviderMessageID: &providerMessageID,
		Text:              normalized.Text,
		Raw:               normalized.Raw,
	}

	created, duplicated, err := s.messageService.AppendInbound(ctx, message)
	if err != nil {
		s.saveLog(ctx, webhookmodels.WebhookLog{
			TenantID:  channel.TenantID,
			ChannelID: channelID,
			Provider:  providerType,
			Status:    webhookmodels.WebhookStatusRejected,
			Reason:    "message append failed",
			RawBody:   string(rawBody),
		})
		return nil, err
	}

	s.saveLog(ctx, webhookmodels.WebhookLog{
		TenantID:  channel.TenantID,
		ChannelID: channelID,
		Provider:  providerType,
		Status:    webhookmodels.WebhookStatusAccepted,
		RawBody:   string(rawBody),
	})

	log.WithFields(map[string]interface{}{
		"tenantId":          channel.TenantID.Hex(),
		"channelId":         channelID.Hex(),
		"conversationId":    conversation.ID.Hex(),
		"providerMessageId": normalized.ProviderMessageID,
		"duplicated":        duplicated,
	}).Info("🔔 [WEBHOOK] Đã xử lý tin nhắn inbound")

	return &IngestResult{
		Duplicated:   duplicated,
		Conversation: conversation,
		Message:      created,
	}, nil
}

// saveLog ghi audit log best-effort: lỗi ghi log không chặn pipeline
func (s *IngestService) saveLog(ctx context.Context, entry webhookmodels.WebhookLog) {
	if _, err := s.webhookLogService.Save(ctx, entry); err != nil {
		logger.WithModule("webhook").WithError(err).Warn("🔔 [WEBHOOK] Không thể lưu webhook log")
	}
}
