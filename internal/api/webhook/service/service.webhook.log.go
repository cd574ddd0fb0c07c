package webhooksvc

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	basemodels "kams_hub/internal/api/base/models"
	basesvc "kams_hub/internal/api/base/service"
	webhookmodels "kams_hub/internal/api/webhook/models"
	"kams_hub/internal/common"
	"kams_hub/internal/global"
)

// WebhookLogService là cấu trúc chứa các phương thức cho webhook audit log
type WebhookLogService struct {
	*basesvc.BaseServiceMongoImpl[webhookmodels.WebhookLog]
}

// NewWebhookLogService tạo mới WebhookLogService
func NewWebhookLogService() (*WebhookLogService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.WebhookLogs)
	if !exist {
		return nil, fmt.Errorf("failed to get webhook_logs collection: %v", common.ErrNotFound)
	}
	return &WebhookLogService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[webhookmodels.WebhookLog](coll),
	}, nil
}

// Save ghi một dòng audit log cho webhook vừa nhận
func (s *WebhookLogService) Save(ctx context.Context, log webhookmodels.WebhookLog) (webhookmodels.WebhookLog, error) {
	if log.ReceivedAt == 0 {
		log.ReceivedAt = time.Now().UnixMilli()
	}
	return s.InsertOne(ctx, log)
}

// FindAllByChannel liệt kê log của một channel, mới nhất trước, tenant-scoped
func (s *WebhookLogService) FindAllByChannel(ctx context.Context, tenantID, channelID primitive.ObjectID, page, limit int64) (*basemodels.PaginateResult[webhookmodels.WebhookLog], error) {
	filter := bson.M{"tenantId": tenantID, "channelId": channelID}
	opts := options.Find().SetSort(bson.D{{Key: "receivedAt", Value: -1}})
	return s.FindWithPagination(ctx, filter, page, limit, opts)
}
