package main

import (
	"context"
	"time"

	"kams_hub/config"
	"kams_hub/internal/database"
	"kams_hub/internal/global"
	"kams_hub/internal/provider"

	"github.com/sirupsen/logrus"
)

// InitGlobal khởi tạo các biến toàn cục
func InitGlobal() {
	initValidator()        // Khởi tạo validator
	initConfig()           // Khởi tạo cấu hình server
	initDatabase_MongoDB() // Khởi tạo kết nối database
}

// Hàm khởi tạo validator (đăng ký các custom validator: objectid, provider_type, no_xss)
func initValidator() {
	global.InitValidator()
	logrus.Info("Initialized validator")
}

// Hàm khởi tạo cấu hình server
func initConfig() {
	global.ServerConfig = config.NewConfig()
	if global.ServerConfig == nil {
		logrus.Fatalf("Failed to initialize config: config is nil")
	}
	logrus.Info("Initialized server config")
}

// Hàm khởi tạo kết nối database và đảm bảo index
func initDatabase_MongoDB() {
	var err error
	global.MongoDB_Session, err = database.GetInstance(global.ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err)
	}
	logrus.Info("Connected to MongoDB")

	db := global.MongoDB_Session.Database(global.ServerConfig.MongoDB_DBName)
	if err := database.CreateHubIndexes(context.TODO(), db); err != nil {
		logrus.Fatalf("Failed to create indexes: %v", err)
	}
	logrus.Info("Ensured hub indexes")
}

// InitRegistry đăng ký collections và provider adapters
func InitRegistry() {
	if err := initCollections(); err != nil {
		logrus.Fatalf("Failed to initialize collections: %v", err)
	}
	logrus.Info("Initialized collection registry")

	if err := initProviderAdapters(); err != nil {
		logrus.Fatalf("Failed to initialize provider adapters: %v", err)
	}
	logrus.Info("Initialized provider adapters")
}

// initCollections đăng ký các collection MongoDB vào registry
func initCollections() error {
	db := global.MongoDB_Session.Database(global.ServerConfig.MongoDB_DBName)
	colNames := []string{
		global.MongoDB_ColNames.Channels,
		global.MongoDB_ColNames.Conversations,
		global.MongoDB_ColNames.Messages,
		global.MongoDB_ColNames.WebhookLogs,
	}

	for _, name := range colNames {
		registered, err := global.RegistryCollections.Register(name, db.Collection(name))
		if err != nil {
			logrus.Errorf("Failed to register collection %s: %v", name, err)
			return err
		}
		if registered {
			logrus.Infof("Collection %s registered successfully", name)
		} else {
			logrus.Errorf("Collection %s already registered", name)
		}
	}

	return nil
}

// initProviderAdapters đăng ký các adapter gửi tin nhắn ra provider
func initProviderAdapters() error {
	cfg := global.ServerConfig
	timeout := time.Duration(cfg.ProviderSendTimeout) * time.Second
	return provider.InitAdapters(cfg.TelegramAPIBaseURL, timeout)
}
