package storage

import (
	"github.com/wfunc/pin-lock/internal/config"
	"github.com/wfunc/pin-lock/internal/errors"
	"github.com/wfunc/pin-lock/internal/repository"
	"gorm.io/gorm"
)

// ErasedByte 擦除后的EEPROM单元值
const ErasedByte byte = 0xFF

// Medium 固定大小的字节介质
//
// 写入内容与现有内容相同时不产生实际写操作。
type Medium interface {
	Read(addr, size int) ([]byte, error)
	Write(addr int, p []byte) error
	Size() int
	Close() error
}

// Open 按配置打开存储介质，并检查记录区域 [address, address+recordSize) 在介质范围内
func Open(cfg *config.StorageConfig, db *gorm.DB, recordSize int) (Medium, error) {
	if err := checkBounds(cfg.Address, recordSize, cfg.Size); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case "memory":
		return NewMemoryMedium(cfg.Size), nil
	case "file":
		return OpenFileMedium(cfg.Path, cfg.Size)
	case "database":
		if db == nil {
			return nil, errors.New(errors.ErrDatabaseConnect, "database 存储后端需要数据库连接")
		}
		return NewDBMedium(repository.NewStorageBlockRepository(db), cfg.Size), nil
	default:
		return nil, errors.Newf(errors.ErrConfigValidate, "不支持的存储后端: %s", cfg.Backend)
	}
}

// checkBounds 检查访问区域
func checkBounds(addr, size, total int) error {
	if addr < 0 || size < 0 || addr+size > total {
		return errors.Newf(errors.ErrStorageBounds, "地址 %d 长度 %d 超出介质大小 %d", addr, size, total)
	}
	return nil
}

func erased(size int) []byte {
	p := make([]byte, size)
	for i := range p {
		p[i] = ErasedByte
	}
	return p
}
