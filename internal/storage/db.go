package storage

import (
	"context"
	"time"

	"github.com/wfunc/pin-lock/internal/errors"
	"github.com/wfunc/pin-lock/internal/repository"
)

// dbTimeout 单次数据库访问超时，控制循环不能被数据库长时间阻塞
const dbTimeout = 2 * time.Second

// DBMedium 以数据库表模拟的字节介质，每个写入地址对应一行
type DBMedium struct {
	repo repository.StorageBlockRepository
	size int
}

// NewDBMedium 创建数据库介质
func NewDBMedium(repo repository.StorageBlockRepository, size int) *DBMedium {
	return &DBMedium{repo: repo, size: size}
}

// Read 读取以 addr 为起点写入过的块；从未写入时返回擦除状态
func (m *DBMedium) Read(addr, size int) ([]byte, error) {
	if err := checkBounds(addr, size, m.size); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	p := erased(size)
	block, err := m.repo.Get(ctx, addr)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return p, nil
		}
		return nil, errors.Wrap(err, errors.ErrStorageRead)
	}
	copy(p, block.Data)
	return p, nil
}

// Write 写入，内容相同时由仓储跳过
func (m *DBMedium) Write(addr int, p []byte) error {
	if err := checkBounds(addr, len(p), m.size); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	_, err := m.repo.Put(ctx, addr, p)
	return err
}

// Size 介质大小
func (m *DBMedium) Size() int {
	return m.size
}

// Close 数据库连接由调用方管理
func (m *DBMedium) Close() error {
	return nil
}
