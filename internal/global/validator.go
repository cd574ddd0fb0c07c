package global

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InitValidator khởi tạo và đăng ký các custom validator
func InitValidator() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("objectid", validateObjectID)
	_ = Validate.RegisterValidation("provider_type", validateProviderType)
	_ = Validate.RegisterValidation("no_xss", validateNoXSS)
}

// validateObjectID kiểm tra chuỗi là MongoDB ObjectID hợp lệ (24 ký tự hex)
func validateObjectID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Empty = optional, kết hợp với required khi bắt buộc
	}
	_, err := primitive.ObjectIDFromHex(value)
	return err == nil
}

// validateProviderType kiểm tra loại provider nằm trong danh sách hỗ trợ
func validateProviderType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "telegram", "messenger":
		return true
	}
	return false
}

// validateNoXSS kiểm tra XSS
func validateNoXSS(fl validator.FieldLevel) bool {
	value := strings.ToLower(fl.Field().String())
	dangerousPatterns := []string{
		"<script",
		"javascript:",
		"onerror=",
		"onload=",
		"eval(",
		"document.cookie",
		"<iframe",
		"<object",
		"<embed",
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(value, pattern) {
			return false
		}
	}
	return true
}
