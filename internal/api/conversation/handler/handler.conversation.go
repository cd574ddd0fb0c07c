// Package conversationhdl - handler cho các API hội thoại của tenant operator.
package conversationhdl

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basehdl "kams_hub/internal/api/base/handler"
	convdto "kams_hub/internal/api/conversation/dto"
	conversationsvc "kams_hub/internal/api/conversation/service"
	"kams_hub/internal/api/middleware"
	"kams_hub/internal/common"
	"kams_hub/internal/logger"
)

// ConversationHandler xử lý list hội thoại, list message và gửi trả lời
type ConversationHandler struct {
	basehdl.BaseHandler
	conversationService *conversationsvc.ConversationService
	messageService      *conversationsvc.MessageService
	dispatchService     *conversationsvc.DispatchService
}

// NewConversationHandler tạo mới ConversationHandler
func NewConversationHandler() (*ConversationHandler, error) {
	conversationService, err := conversationsvc.NewConversationService()
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation service: %v", err)
	}
	messageService, err := conversationsvc.NewMessageService()
	if err != nil {
		return nil, fmt.Errorf("failed to create message service: %v", err)
	}
	dispatchService, err := conversationsvc.NewDispatchService()
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatch service: %v", err)
	}
	return &ConversationHandler{
		conversationService: conversationService,
		messageService:      messageService,
		dispatchService:     dispatchService,
	}, nil
}

// HandleListConversations liệt kê hội thoại của tenant, mới nhất trước.
// limit kẹp về [1, 100], mặc định 20.
func (h *ConversationHandler) HandleListConversations(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		tenantID, err := middleware.GetTenantID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		limit := conversationsvc.NormalizeLimit(c.Query("limit"), 20)

		summaries, err := h.conversationService.ListSummaries(c.Context(), tenantID, limit)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		h.HandleResponse(c, convdto.ConversationListResponse{
			Items:      summaries,
			NextCursor: nil,
		}, nil)
		return nil
	})
}

// HandleListMessages liệt kê message của một hội thoại, cũ nhất trước.
// limit kẹp về [1, 100], mặc định 50.
func (h *ConversationHandler) HandleListMessages(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		tenantID, err := middleware.GetTenantID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		conversationID, err := parseConversationID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		// Xác nhận hội thoại thuộc tenant trước khi đọc ledger;
		// khác tenant trả về NotFound như id không tồn tại
		if _, err := h.conversationService.FindByIdScoped(c.Context(), tenantID, conversationID); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		limit := conversationsvc.NormalizeLimit(c.Query("limit"), 50)

		messages, err := h.messageService.ListByConversation(c.Context(), tenantID, conversationID, limit)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		h.HandleResponse(c, convdto.MessageListResponse{
			Items:      messages,
			NextCursor: nil,
		}, nil)
		return nil
	})
}

// HandleSendReply gửi trả lời của operator vào hội thoại, trả về 201 với message đã ghi
func (h *ConversationHandler) HandleSendReply(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		tenantID, err := middleware.GetTenantID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		conversationID, err := parseConversationID(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var input convdto.SendReplyInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		message, err := h.dispatchService.DispatchReply(c.Context(), tenantID, conversationID, input.Text)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		logger.WithRequest(c).WithFields(map[string]interface{}{
			"tenantId":       tenantID.Hex(),
			"conversationId": conversationID.Hex(),
			"messageId":      message.ID.Hex(),
		}).Info("📤 [DISPATCH] Đã gửi trả lời")

		basehdl.JSONResponse(c, common.StatusCreated, fiber.Map{
			"code":    common.StatusCreated,
			"message": common.MsgCreated,
			"data":    message,
			"status":  "success",
		})
		return nil
	})
}

// parseConversationID đọc và validate path param id
func parseConversationID(c fiber.Ctx) (primitive.ObjectID, error) {
	idStr := c.Params("id")
	conversationID, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		return primitive.NilObjectID, common.NewError(
			common.ErrCodeValidationInput,
			"Conversation id không đúng định dạng ObjectID",
			common.StatusBadRequest,
			err,
		)
	}
	return conversationID, nil
}
