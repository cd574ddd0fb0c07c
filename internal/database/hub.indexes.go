package database

import (
	"context"
	"strings"

	"kams_hub/internal/global"
	"kams_hub/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// hubIndexModels liệt kê index theo collection.
// Tách riêng khỏi CreateHubIndexes để kiểm tra được định nghĩa index mà không cần MongoDB.
func hubIndexModels() map[string][]mongo.IndexModel {
	// Channels: mỗi tenant chỉ gắn một channel cho một external id của provider
	channelIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tenantId", Value: 1},
				{Key: "providerType", Value: 1},
				{Key: "externalId", Value: 1},
			},
			Options: options.Index().
				SetName("uniq_tenant_provider_external").
				SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "tenantId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("idx_tenant_created"),
		},
	}

	// Conversations: khóa duy nhất cho resolver upsert
	conversationIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tenantId", Value: 1},
				{Key: "channelId", Value: 1},
				{Key: "externalThreadId", Value: 1},
			},
			Options: options.Index().
				SetName("uniq_tenant_channel_thread").
				SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "tenantId", Value: 1},
				{Key: "lastMessageAt", Value: -1},
			},
			Options: options.Index().SetName("idx_tenant_last_message"),
		},
	}

	// Messages: dedup theo providerMessageId, cộng index phục vụ liệt kê theo hội thoại.
	// Phải dùng partial filter thay vì sparse: sparse index compound vẫn index
	// document chỉ cần CÓ một trong các key, nên message outbound mock (không có
	// providerMessageId nhưng luôn có tenantId/channelId) sẽ nhận entry null và
	// message mock thứ hai cùng tenant+channel bị E11000.
	messageIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tenantId", Value: 1},
				{Key: "channelId", Value: 1},
				{Key: "providerMessageId", Value: 1},
			},
			Options: options.Index().
				SetName("uniq_tenant_channel_provider_msg").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"providerMessageId": bson.M{"$exists": true},
				}),
		},
		{
			Keys: bson.D{
				{Key: "tenantId", Value: 1},
				{Key: "conversationId", Value: 1},
				{Key: "createdAt", Value: 1},
			},
			Options: options.Index().SetName("idx_tenant_conversation_created"),
		},
	}

	// WebhookLogs: tra cứu theo channel và thời gian nhận
	webhookLogIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tenantId", Value: 1},
				{Key: "channelId", Value: 1},
				{Key: "receivedAt", Value: -1},
			},
			Options: options.Index().SetName("idx_tenant_channel_received"),
		},
	}

	return map[string][]mongo.IndexModel{
		global.MongoDB_ColNames.Channels:      channelIndexes,
		global.MongoDB_ColNames.Conversations: conversationIndexes,
		global.MongoDB_ColNames.Messages:      messageIndexes,
		global.MongoDB_ColNames.WebhookLogs:   webhookLogIndexes,
	}
}

// CreateHubIndexes tạo các index cần thiết cho hub.
// Unique index là chốt chặn cuối cùng cho các invariant ghi dữ liệu:
// code có race thì index vẫn chặn được bản ghi trùng.
func CreateHubIndexes(ctx context.Context, db *mongo.Database) error {
	log := logger.GetAppLogger()

	for colName, indexes := range hubIndexModels() {
		collection := db.Collection(colName)
		for _, index := range indexes {
			if _, err := collection.Indexes().CreateOne(ctx, index); err != nil {
				if isIndexExistsError(err) {
					continue
				}
				log.WithError(err).WithField("collection", colName).Error("Failed to create index")
				return err
			}
		}
		log.WithField("collection", colName).Info("Indexes ensured")
	}

	return nil
}

// isIndexExistsError kiểm tra lỗi trả về có phải do index đã tồn tại hay không
func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "already exists") ||
		strings.Contains(errMsg, "IndexOptionsConflict") ||
		strings.Contains(errMsg, "IndexKeySpecsConflict")
}
