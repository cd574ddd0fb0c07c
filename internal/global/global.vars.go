package global

import (
	"kams_hub/config"
	"kams_hub/internal/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB_Hub_CollectionName chứa tên các collection trong MongoDB
type MongoDB_Hub_CollectionName struct {
	Channels      string // Tên collection cho channel kết nối provider của tenant
	Conversations string // Tên collection cho cuộc hội thoại
	Messages      string // Tên collection cho message ledger (append-only)
	WebhookLogs   string // Tên collection cho webhook audit log
}

// Các biến toàn cục
var Validate *validator.Validate            // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client           // Phiên kết nối tới MongoDB (pooled, dùng chung cho mọi request)
var ServerConfig *config.Configuration      // Cấu hình của server
var MongoDB_ColNames = MongoDB_Hub_CollectionName{
	Channels:      "channels",
	Conversations: "conversations",
	Messages:      "messages",
	WebhookLogs:   "webhook_logs",
}

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
