package conversationsvc

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "kams_hub/internal/api/base/service"
	convmodels "kams_hub/internal/api/conversation/models"
	"kams_hub/internal/common"
	"kams_hub/internal/global"
	"kams_hub/internal/logger"
)

// messageCollection là phần AppendInbound/AppendOutbound cần từ tầng storage,
// tách ra để test nhánh dedup bằng fake store (cùng cách DispatchService làm).
type messageCollection interface {
	InsertOne(ctx context.Context, data convmodels.Message) (convmodels.Message, error)
	FindOne(ctx context.Context, filter interface{}, opts *options.FindOneOptions) (convmodels.Message, error)
}

// MessageService là cấu trúc chứa các phương thức cho ledger tin nhắn.
// Ledger là append-only: không có update hay delete nghiệp vụ.
type MessageService struct {
	*basesvc.BaseServiceMongoImpl[convmodels.Message]
	store messageCollection
}

// NewMessageService tạo mới MessageService
func NewMessageService() (*MessageService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Messages)
	if !exist {
		return nil, fmt.Errorf("failed to get messages collection: %v", common.ErrNotFound)
	}
	base := basesvc.NewBaseServiceMongo[convmodels.Message](coll)
	return &MessageService{
		BaseServiceMongoImpl: base,
		store:                base,
	}, nil
}

// AppendInbound ghi message inbound với dedup theo (tenantId, channelId, providerMessageId).
// Provider redeliver cùng providerMessageId sẽ không tạo dòng mới: insert vướng
// unique index thì coi là redelivery, trả về bản ghi đã có và duplicated = true.
func (s *MessageService) AppendInbound(ctx context.Context, message convmodels.Message) (convmodels.Message, bool, error) {
	message.Direction = convmodels.DirectionInbound

	created, err := s.store.InsertOne(ctx, message)
	if err == nil {
		return created, false, nil
	}
	if !errors.Is(err, common.ErrDuplicate) {
		return convmodels.Message{}, false, err
	}

	// Redelivery: lấy lại bản ghi đã có theo dedup key
	var providerMessageID string
	if message.ProviderMessageID != nil {
		providerMessageID = *message.ProviderMessageID
	}
	logger.WithModule("message").WithFields(map[string]interface{}{
		"tenantId":          message.TenantID.Hex(),
		"channelId":         message.ChannelID.Hex(),
		"providerMessageId": providerMessageID,
	}).Info("📒 [LEDGER] Webhook redelivery, bỏ qua message trùng")

	existing, findErr := s.store.FindOne(ctx, bson.M{
		"tenantId":          message.TenantID,
		"channelId":         message.ChannelID,
		"providerMessageId": providerMessageID,
	}, nil)
	if findErr != nil {
		return convmodels.Message{}, false, findErr
	}
	return existing, true, nil
}

// AppendOutbound ghi message outbound sau khi send đã được provider xác nhận (hoặc mock).
// Caller chỉ được gọi hàm này với receipt thành công; send fault thì không có dòng ledger.
func (s *MessageService) AppendOutbound(ctx context.Context, message convmodels.Message) (convmodels.Message, error) {
	message.Direction = convmodels.DirectionOutbound
	return s.store.InsertOne(ctx, message)
}

// ListByConversation liệt kê message của một cuộc hội thoại, cũ nhất trước.
// Caller phải đã xác nhận conversation thuộc tenant trước khi gọi.
func (s *MessageService) ListByConversation(ctx context.Context, tenantID, conversationID primitive.ObjectID, limit int64) ([]convmodels.Message, error) {
	filter := bson.M{"tenantId": tenantID, "conversationId": conversationID}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(limit)
	return s.Find(ctx, filter, opts)
}

// FindLatestByConversation lấy message gần nhất của cuộc hội thoại (cho preview list view)
func (s *MessageService) FindLatestByConversation(ctx context.Context, tenantID, conversationID primitive.ObjectID) (convmodels.Message, error) {
	filter := bson.M{"tenantId": tenantID, "conversationId": conversationID}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return s.FindOne(ctx, filter, opts)
}
