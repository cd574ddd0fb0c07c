// Package webhookhdl - handler nhận webhook inbound từ các provider.
package webhookhdl

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basehdl "kams_hub/internal/api/base/handler"
	webhooksvc "kams_hub/internal/api/webhook/service"
	"kams_hub/internal/common"
	"kams_hub/internal/logger"
)

// WebhookHandler xử lý POST /webhooks/:provider/:channelId
type WebhookHandler struct {
	ingestService *webhooksvc.IngestService
}

// NewWebhookHandler tạo mới WebhookHandler
func NewWebhookHandler() (*WebhookHandler, error) {
	ingestService, err := webhooksvc.NewIngestService()
	if err != nil {
		return nil, fmt.Errorf("failed to create ingest service: %v", err)
	}
	return &WebhookHandler{
		ingestService: ingestService,
	}, nil
}

// HandleInboundWebhook nhận payload webhook nguyên bản từ provider.
// Endpoint này không có principal: tenant được suy ra từ channel trong path.
// Response giữ format phẳng {ok: ...} mà provider mong đợi, không dùng envelope chung.
func (h *WebhookHandler) HandleInboundWebhook(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		providerType := c.Params("provider")

		// channelId là dữ liệu path do caller cung cấp, phải validate là
		// ObjectID hợp lệ trước khi chạm vào storage
		channelID, err := primitive.ObjectIDFromHex(c.Params("channelId"))
		if err != nil {
			return basehdl.JSONResponse(c, common.StatusBadRequest, fiber.Map{
				"ok":    false,
				"error": "invalid channel id",
			})
		}

		result, err := h.ingestService.Ingest(c.Context(), providerType, channelID, c.Body())
		if err != nil {
			return h.handleIngestError(c, err)
		}

		if result.Ignored {
			return basehdl.JSONResponse(c, common.StatusOK, fiber.Map{
				"ok":      true,
				"ignored": true,
			})
		}

		return basehdl.JSONResponse(c, common.StatusOK, fiber.Map{"ok": true})
	})
}

// handleIngestError ánh xạ lỗi pipeline sang status webhook:
// 404 channel không tồn tại, 400 payload hỏng, còn lại 500 để provider retry
func (h *WebhookHandler) handleIngestError(c fiber.Ctx, err error) error {
	var customErr *common.Error
	if errors.As(err, &customErr) {
		return basehdl.JSONResponse(c, customErr.StatusCode, fiber.Map{
			"ok":    false,
			"error": customErr.Message,
		})
	}

	logger.WithRequest(c).WithError(err).Error("🔔 [WEBHOOK] Lỗi không xác định khi xử lý webhook")
	return basehdl.JSONResponse(c, common.StatusInternalServerError, fiber.Map{
		"ok":    false,
		"error": "internal error",
	})
}
