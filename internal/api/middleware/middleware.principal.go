package middleware

import (
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"kams_hub/internal/common"
)

// PrincipalMiddleware đọc principal đã được gateway xác thực từ header.
// Service này đứng sau gateway: gateway verify token và forward các header
// X-Tenant-ID / X-User-ID, service không tự verify lại token.
// - X-Tenant-ID (bắt buộc): ObjectID hex của tenant, mọi truy vấn đều scope theo giá trị này
// - X-User-ID (tùy chọn): định danh người thao tác, chỉ dùng để ghi log
func PrincipalMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		tenantIDStr := c.Get("X-Tenant-ID")
		if tenantIDStr == "" {
			HandleErrorResponse(c, common.ErrPrincipalMissing)
			return nil
		}

		tenantID, err := primitive.ObjectIDFromHex(tenantIDStr)
		if err != nil {
			HandleErrorResponse(c, common.ErrPrincipalInvalid)
			return nil
		}

		// Lưu vào context cho handler phía sau
		c.Locals("tenant_id", tenantID.Hex())
		if userID := c.Get("X-User-ID"); userID != "" {
			c.Locals("user_id", userID)
		}

		return c.Next()
	}
}

// GetTenantID lấy tenant ID từ context (đã được set bởi PrincipalMiddleware).
// Trả về lỗi nếu middleware chưa chạy hoặc giá trị không hợp lệ.
func GetTenantID(c fiber.Ctx) (primitive.ObjectID, error) {
	tenantIDStr, ok := c.Locals("tenant_id").(string)
	if !ok || tenantIDStr == "" {
		return primitive.NilObjectID, common.ErrPrincipalMissing
	}

	tenantID, err := primitive.ObjectIDFromHex(tenantIDStr)
	if err != nil {
		return primitive.NilObjectID, common.ErrPrincipalInvalid
	}

	return tenantID, nil
}
