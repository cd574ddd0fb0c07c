// Package router đăng ký toàn bộ route của hub lên Fiber app.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	channelhdl "kams_hub/internal/api/channel/handler"
	conversationhdl "kams_hub/internal/api/conversation/handler"
	"kams_hub/internal/api/middleware"
	webhookhdl "kams_hub/internal/api/webhook/handler"
)

// SetupRoutes đăng ký tất cả route của ứng dụng.
// Hai nhóm surface tách biệt:
//   - /webhooks/...: public, provider gọi vào, tenant suy ra từ channel
//   - /api/v1/tenant/...: yêu cầu principal đã được gateway xác thực
func SetupRoutes(app *fiber.App) error {
	// Health check cho load balancer / orchestrator
	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Webhook inbound: không qua principal middleware
	webhookHandler, err := webhookhdl.NewWebhookHandler()
	if err != nil {
		return fmt.Errorf("failed to create webhook handler: %v", err)
	}
	app.Post("/webhooks/:provider/:channelId", webhookHandler.HandleInboundWebhook)

	// Tenant API: mọi route đều scope theo tenant trong principal
	v1 := app.Group("/api/v1")
	tenant := v1.Group("/tenant", middleware.PrincipalMiddleware())

	// Channel Registry
	channelHandler, err := channelhdl.NewChannelHandler()
	if err != nil {
		return fmt.Errorf("failed to create channel handler: %v", err)
	}
	tenant.Post("/channels", channelHandler.HandleCreate)
	tenant.Get("/channels", channelHandler.HandleFindAll)
	tenant.Get("/channels/:id", channelHandler.HandleFindOne)
	tenant.Put("/channels/:id", channelHandler.HandleUpdate)
	tenant.Delete("/channels/:id", channelHandler.HandleDelete)

	// Webhook audit log theo channel
	webhookLogHandler, err := webhookhdl.NewWebhookLogHandler()
	if err != nil {
		return fmt.Errorf("failed to create webhook log handler: %v", err)
	}
	tenant.Get("/channels/:id/webhook-logs", webhookLogHandler.HandleFindAllByChannel)

	// Hội thoại và tin nhắn
	conversationHandler, err := conversationhdl.NewConversationHandler()
	if err != nil {
		return fmt.Errorf("failed to create conversation handler: %v", err)
	}
	tenant.Get("/conversations", conversationHandler.HandleListConversations)
	tenant.Get("/conversations/:id/messages", conversationHandler.HandleListMessages)
	tenant.Post("/conversations/:id/messages", conversationHandler.HandleSendReply)

	return nil
}
