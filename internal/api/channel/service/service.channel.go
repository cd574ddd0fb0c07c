package channelsvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	basemodels "kams_hub/internal/api/base/models"
	basesvc "kams_hub/internal/api/base/service"
	channeldto "kams_hub/internal/api/channel/dto"
	channelmodels "kams_hub/internal/api/channel/models"
	"kams_hub/internal/common"
	"kams_hub/internal/global"
)

// ChannelService là cấu trúc chứa các phương thức liên quan đến channel
type ChannelService struct {
	*basesvc.BaseServiceMongoImpl[channelmodels.Channel]
}

// NewChannelService tạo mới ChannelService
func NewChannelService() (*ChannelService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Channels)
	if !exist {
		return nil, fmt.Errorf("failed to get channels collection: %v", common.ErrNotFound)
	}
	return &ChannelService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[channelmodels.Channel](coll),
	}, nil
}

// Create tạo channel mới cho tenant
func (s *ChannelService) Create(ctx context.Context, tenantID primitive.ObjectID, input *channeldto.ChannelCreateInput) (channelmodels.Channel, error) {
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	channel := channelmodels.Channel{
		TenantID:     tenantID,
		ProviderType: input.ProviderType,
		DisplayName:  input.DisplayName,
		ExternalID:   input.ExternalID,
		Credentials: channelmodels.ChannelCredentials{
			BotToken: input.Credentials.BotToken,
		},
		IsActive: isActive,
	}

	return s.InsertOne(ctx, channel)
}

// FindByIdScoped tìm channel theo id trong phạm vi tenant.
// Sai tenant hay không tồn tại đều trả về ErrNotFound, không phân biệt được từ phía caller.
func (s *ChannelService) FindByIdScoped(ctx context.Context, tenantID, channelID primitive.ObjectID) (channelmodels.Channel, error) {
	filter := bson.M{"_id": channelID, "tenantId": tenantID}
	return s.FindOne(ctx, filter, nil)
}

// FindActiveById tìm channel theo id không phân biệt tenant, chỉ nhận channel đang active.
// Dùng riêng cho đường webhook: tenant được suy ra TỪ channel, không bao giờ từ payload.
func (s *ChannelService) FindActiveById(ctx context.Context, channelID primitive.ObjectID) (channelmodels.Channel, error) {
	filter := bson.M{"_id": channelID, "isActive": true}
	return s.FindOne(ctx, filter, nil)
}

// FindAllByTenant liệt kê channel của tenant với phân trang, mới tạo trước
func (s *ChannelService) FindAllByTenant(ctx context.Context, tenantID primitive.ObjectID, page, limit int64) (*basemodels.PaginateResult[channelmodels.Channel], error) {
	filter := bson.M{"tenantId": tenantID}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return s.FindWithPagination(ctx, filter, page, limit, opts)
}

// Update cập nhật các trường được gửi lên của channel, tenant-scoped
func (s *ChannelService) Update(ctx context.Context, tenantID, channelID primitive.ObjectID, input *channeldto.ChannelUpdateInput) (channelmodels.Channel, error) {
	set := bson.M{}
	if input.DisplayName != nil {
		set["displayName"] = *input.DisplayName
	}
	if input.IsActive != nil {
		set["isActive"] = *input.IsActive
	}
	if input.Credentials != nil {
		set["credentials"] = channelmodels.ChannelCredentials{
			BotToken: input.Credentials.BotToken,
		}
	}

	filter := bson.M{"_id": channelID, "tenantId": tenantID}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return s.FindOneAndUpdate(ctx, filter, &basesvc.UpdateData{Set: set}, opts)
}

// Delete xóa channel của tenant
func (s *ChannelService) Delete(ctx context.Context, tenantID, channelID primitive.ObjectID) error {
	filter := bson.M{"_id": channelID, "tenantId": tenantID}
	return s.DeleteOne(ctx, filter)
}
