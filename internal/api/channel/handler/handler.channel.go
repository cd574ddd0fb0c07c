// Package channelhdl - handler cho Channel Registry (CRUD channel của tenant).
package channelhdl

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basehdl "kams_hub/internal/api/base/handler"
	channeldto "kams_hub/internal/api/channel/dto"
	channelsvc "kams_hub/internal/api/channel/service"
	"kams_hub/internal/api/middleware"
	"kams_hub/internal/common"
	"kams_hub/internal/logger"
)

// ChannelHandler xử lý các request CRUD channel
type ChannelHandler struct {
	basehdl.BaseHandler
	channelService *channelsvc.ChannelService
}

// NewChannelHandler tạo mới ChannelHandler
func NewChannelHandler() (*ChannelHandler, error) {
	channelService, err := channelsvc.NewChannelService()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel service: %v", err)
	}
	return &ChannelHandler{
		channelService: channelService,
	}, nil
}

// HandleCreate tạo channel mới cho tenant
func (h *ChannelHandler) HandleCreate(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		tenantID, err := middleware.GetTenantID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input channeldto.ChannelCreateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		channel, err := h.channelService.Create(c.Context(), tenantID, &input)
		if err == nil {
			logger.WithModule("channel").WithFields(map[string]interface{}{
				"tenantId":     tenantID.Hex(),
				"channelId":    channel.ID.Hex(),
				"providerType": channel.ProviderType,
			}).Info("📡 [CHANNEL] Đã tạo channel mới")
		}
		h.HandleResponse(c, channel, err)
		return nil
	})
}

// HandleFindAll liệt kê channel của tenant với phân trang
func (h *ChannelHandler) HandleFindAll(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		tenantID, err := middleware.GetTenantID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
		limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

		result, err := h.channelService.FindAllByTenant(c.Context(), tenantID, page, limit)
		h.HandleResponse(c, result, err)
		return nil
	})
}

// HandleFindOne lấy một channel theo id, tenant-scoped
func (h *ChannelHandler) HandleFindOne(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		tenantID, err := middleware.GetTenantID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		channelID, err := parseChannelID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		channel, err := h.channelService.FindByIdScoped(c.Context(), tenantID, channelID)
		h.HandleResponse(c, channel, err)
		return nil
	})
}

// HandleUpdate cập nhật channel của tenant
func (h *ChannelHandler) HandleUpdate(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		tenantID, err := middleware.GetTenantID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		channelID, err := parseChannelID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input channeldto.ChannelUpdateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		channel, err := h.channelService.Update(c.Context(), tenantID, channelID, &input)
		h.HandleResponse(c, channel, err)
		return nil
	})
}

// HandleDelete xóa channel của tenant
func (h *ChannelHandler) HandleDelete(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		tenantID, err := middleware.GetTenantID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		channelID, err := parseChannelID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		err = h.channelService.Delete(c.Context(), tenantID, channelID)
		h.HandleResponse(c, nil, err)
		return nil
	})
}

// parseChannelID đọc và validate path param id
func parseChannelID(c fiber.Ctx) (primitive.ObjectID, error) {
	idStr := c.Params("id")
	channelID, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		return primitive.NilObjectID, common.NewError(
			common.ErrCodeValidationInput,
			"Channel id không đúng định dạng ObjectID",
			common.StatusBadRequest,
			err,
		)
	}
	return channelID, nil
}
