package cli

import (
	"github.com/wfunc/pin-lock/internal/config"
	"github.com/wfunc/pin-lock/internal/database"
	"github.com/wfunc/pin-lock/internal/lock"
	"github.com/wfunc/pin-lock/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// openMedium 按配置打开存储介质，返回的 cleanup 关闭介质和数据库
func openMedium(cfg *config.Config) (storage.Medium, func(), error) {
	var db *gorm.DB
	if cfg.Storage.Backend == "database" {
		var err error
		db, err = openDB(cfg)
		if err != nil {
			return nil, nil, err
		}
	}

	medium, err := storage.Open(&cfg.Storage, db, lock.RecordSize)
	if err != nil {
		if db != nil {
			_ = database.CloseDB(db)
		}
		return nil, nil, err
	}

	cleanup := func() {
		_ = medium.Close()
		if db != nil {
			_ = database.CloseDB(db)
		}
	}
	return medium, cleanup, nil
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(&cfg.Database, zap.NewNop())
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, &cfg.Database, zap.NewNop()); err != nil {
			_ = database.CloseDB(db)
			return nil, err
		}
	}
	return db, nil
}
