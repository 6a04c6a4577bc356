package database

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// 迁移锁：lockd 与 lockctl 可能同时打开同一个 SQLite 文件
const (
	migrationLockAttempts = 30
	migrationLockStale    = 5 * time.Minute
)

// acquireMigrationLock 获取迁移锁
func acquireMigrationLock(dbPath string, log *zap.Logger) (*os.File, error) {
	lockPath := dbPath + ".migration.lock"

	for i := 0; i < migrationLockAttempts; i++ {
		lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
		if err == nil {
			log.Debug("获取迁移锁成功", zap.String("lock", lockPath))
			return lockFile, nil
		}

		// 锁文件过旧说明持有者已经退出
		if info, err := os.Stat(lockPath); err == nil {
			if time.Since(info.ModTime()) > migrationLockStale {
				log.Warn("迁移锁文件过期，尝试删除", zap.String("lock", lockPath))
				os.Remove(lockPath)
				continue
			}
		}

		log.Debug("等待迁移锁...", zap.Int("attempt", i+1))
		time.Sleep(time.Second)
	}

	return nil, fmt.Errorf("无法获取迁移锁，可能有其他进程正在执行迁移")
}

// releaseMigrationLock 释放迁移锁
func releaseMigrationLock(lockFile *os.File, log *zap.Logger) {
	if lockFile == nil {
		return
	}

	lockPath := lockFile.Name()
	lockFile.Close()
	os.Remove(lockPath)
	log.Debug("释放迁移锁", zap.String("lock", lockPath))
}

// sqlitePath SQLite DSN 对应的文件路径，内存数据库返回空
func sqlitePath(driver, dsn string) string {
	switch driver {
	case "sqlite", "sqlite3":
	default:
		return ""
	}
	if dsn == "" || dsn == ":memory:" || len(dsn) >= 5 && dsn[:5] == "file:" {
		return ""
	}
	return dsn
}
