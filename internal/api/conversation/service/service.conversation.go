// Package conversationsvc chứa nghiệp vụ lõi của hub: resolve cuộc hội thoại,
// ledger tin nhắn và orchestrator gửi trả lời.
package conversationsvc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "kams_hub/internal/api/base/service"
	channelmodels "kams_hub/internal/api/channel/models"
	channelsvc "kams_hub/internal/api/channel/service"
	convdto "kams_hub/internal/api/conversation/dto"
	convmodels "kams_hub/internal/api/conversation/models"
	"kams_hub/internal/common"
	"kams_hub/internal/global"
	"kams_hub/internal/logger"
)

// ConversationService là cấu trúc chứa các phương thức liên quan đến cuộc hội thoại
type ConversationService struct {
	*basesvc.BaseServiceMongoImpl[convmodels.Conversation]
	channelService *channelsvc.ChannelService
	messageService *MessageService
}

// NewConversationService tạo mới ConversationService
func NewConversationService() (*ConversationService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Conversations)
	if !exist {
		return nil, fmt.Errorf("failed to get conversations collection: %v", common.ErrNotFound)
	}
	channelService, err := channelsvc.NewChannelService()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel service: %v", err)
	}
	messageService, err := NewMessageService()
	if err != nil {
		return nil, fmt.Errorf("failed to create message service: %v", err)
	}
	return &ConversationService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[convmodels.Conversation](coll),
		channelService:       channelService,
		messageService:       messageService,
	}, nil
}

// Resolve tìm hoặc tạo cuộc hội thoại theo khóa (tenantId, channelId, externalThreadId).
// - Đã tồn tại: merge các trường không rỗng của hint vào participants (last-write-wins
//   từng trường), cập nhật lastMessageAt, trả về bản ghi sau cập nhật.
// - Chưa tồn tại: tạo mới với participants = hint, lastMessageAt = createdAt = now.
// An toàn dưới concurrent resolve cùng khóa nhờ upsert + unique index phía storage;
// upsert race thua trả về duplicate key thì retry một lần (lúc đó document đã tồn tại).
func (s *ConversationService) Resolve(ctx context.Context, tenantID, channelID primitive.ObjectID, externalThreadID string, hint convmodels.Participants) (convmodels.Conversation, error) {
	conversation, err := s.resolveOnce(ctx, tenantID, channelID, externalThreadID, hint)
	if err != nil && errors.Is(err, common.ErrDuplicate) {
		return s.resolveOnce(ctx, tenantID, channelID, externalThreadID, hint)
	}
	return conversation, err
}

func (s *ConversationService) resolveOnce(ctx context.Context, tenantID, channelID primitive.ObjectID, externalThreadID string, hint convmodels.Participants) (convmodels.Conversation, error) {
	now := time.Now().UnixMilli()

	filter := bson.M{
		"tenantId":         tenantID,
		"channelId":        channelID,
		"externalThreadId": externalThreadID,
	}

	set := bson.M{"lastMessageAt": now}
	if hint.ExternalUserID != "" {
		set["participants.externalUserId"] = hint.ExternalUserID
	}
	if hint.ExternalUsername != "" {
		set["participants.externalUsername"] = hint.ExternalUsername
	}

	update := &basesvc.UpdateData{
		Set: set,
		SetOnInsert: bson.M{
			"tenantId":         tenantID,
			"channelId":        channelID,
			"externalThreadId": externalThreadID,
			"createdAt":        now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	return s.FindOneAndUpdate(ctx, filter, update, opts)
}

// FindByIdScoped tìm cuộc hội thoại theo id trong phạm vi tenant.
// Không tồn tại và khác tenant đều là ErrNotFound, cố ý không phân biệt.
func (s *ConversationService) FindByIdScoped(ctx context.Context, tenantID, conversationID primitive.ObjectID) (convmodels.Conversation, error) {
	filter := bson.M{"_id": conversationID, "tenantId": tenantID}
	return s.FindOne(ctx, filter, nil)
}

// TouchLastMessage cập nhật lastMessageAt của cuộc hội thoại.
// Chỉ là timestamp phục vụ sort list view nên caller được phép coi là best-effort.
func (s *ConversationService) TouchLastMessage(ctx context.Context, tenantID, conversationID primitive.ObjectID, at int64) error {
	filter := bson.M{"_id": conversationID, "tenantId": tenantID}
	update := &basesvc.UpdateData{Set: bson.M{"lastMessageAt": at}}
	_, err := s.FindOneAndUpdate(ctx, filter, update, nil)
	return err
}

// ListSummaries liệt kê cuộc hội thoại của tenant, mới nhất trước, kèm snapshot
// channel và preview tin nhắn gần nhất cho list view của operator.
func (s *ConversationService) ListSummaries(ctx context.Context, tenantID primitive.ObjectID, limit int64) ([]convdto.ConversationSummary, error) {
	filter := bson.M{"tenantId": tenantID}
	opts := options.Find().
		SetSort(bson.D{{Key: "lastMessageAt", Value: -1}}).
		SetLimit(limit)

	conversations, err := s.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	// Cache channel theo id, tránh query lặp khi nhiều hội thoại chung channel
	channelCache := make(map[primitive.ObjectID]channelmodels.Channel)

	summaries := make([]convdto.ConversationSummary, 0, len(conversations))
	for _, conversation := range conversations {
		summary := convdto.ConversationSummary{
			ID:               conversation.ID,
			ExternalThreadID: conversation.ExternalThreadID,
			Participants:     conversation.Participants,
			LastMessageAt:    conversation.LastMessageAt,
			CreatedAt:        conversation.CreatedAt,
		}

		channel, cached := channelCache[conversation.ChannelID]
		if !cached {
			channel, err = s.channelService.FindByIdScoped(ctx, tenantID, conversation.ChannelID)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					// Channel đã bị xóa, vẫn trả về hội thoại với snapshot rỗng
					logger.WithModule("conversation").WithFields(map[string]interface{}{
						"conversationId": conversation.ID.Hex(),
						"channelId":      conversation.ChannelID.Hex(),
					}).Warn("💬 [CONVERSATION] Channel của hội thoại không còn tồn tại")
					channel = channelmodels.Channel{ID: conversation.ChannelID}
				} else {
					return nil, err
				}
			}
			channelCache[conversation.ChannelID] = channel
		}
		summary.Channel = convdto.ChannelSnapshot{
			ID:          channel.ID,
			Type:        channel.ProviderType,
			DisplayName: channel.DisplayName,
		}

		lastMessage, err := s.messageService.FindLatestByConversation(ctx, tenantID, conversation.ID)
		if err != nil {
			if !errors.Is(err, common.ErrNotFound) {
				return nil, err
			}
			// Hội thoại chưa có message (chỉ xảy ra khi append sau resolve thất bại)
		} else {
			summary.LastMessagePreview = lastMessage.Text
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// NormalizeLimit chuẩn hóa limit từ query string: rỗng hoặc không parse được
// dùng giá trị mặc định, sau đó kẹp về khoảng [1, 100].
func NormalizeLimit(raw string, def int64) int64 {
	limit := def
	if raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			limit = parsed
		}
	}
	if limit < 1 {
		return 1
	}
	if limit > 100 {
		return 100
	}
	return limit
}
