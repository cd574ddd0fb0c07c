package webhookhdl

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basehdl "kams_hub/internal/api/base/handler"
	webhooksvc "kams_hub/internal/api/webhook/service"
	"kams_hub/internal/api/middleware"
	"kams_hub/internal/common"
)

// WebhookLogHandler cho operator tra cứu audit log webhook theo channel
type WebhookLogHandler struct {
	basehdl.BaseHandler
	webhookLogService *webhooksvc.WebhookLogService
}

// NewWebhookLogHandler tạo mới WebhookLogHandler
func NewWebhookLogHandler() (*WebhookLogHandler, error) {
	webhookLogService, err := webhooksvc.NewWebhookLogService()
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook log service: %v", err)
	}
	return &WebhookLogHandler{
		webhookLogService: webhookLogService,
	}, nil
}

// HandleFindAllByChannel liệt kê webhook log của một channel, tenant-scoped
func (h *WebhookLogHandler) HandleFindAllByChannel(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		tenantID, err := middleware.GetTenantID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		channelID, err := primitive.ObjectIDFromHex(c.Params("id"))
		if err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationInput,
				"Channel id không đúng định dạng ObjectID",
				common.StatusBadRequest,
				err,
			))
			return nil
		}

		page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
		limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

		result, err := h.webhookLogService.FindAllByChannel(c.Context(), tenantID, channelID, page, limit)
		h.HandleResponse(c, result, err)
		return nil
	})
}
