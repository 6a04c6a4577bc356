package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"

	"github.com/wfunc/pin-lock/internal/errors"
)

// FileMedium EEPROM 镜像文件
//
// 文件大小固定，新建时以 0xFF 填充；写入前先比较，内容未变化时不触碰文件。
type FileMedium struct {
	mu     sync.Mutex
	file   *os.File
	size   int
	writes int
}

// OpenFileMedium 打开或创建镜像文件
func OpenFileMedium(path string, size int) (*FileMedium, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, errors.ErrStorageWrite, "创建目录 %s 失败", dir)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrStorageRead, "打开镜像 %s 失败", path)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, errors.ErrStorageRead)
	}

	// 新文件或长度不足的部分按擦除状态补齐
	if current := int(info.Size()); current < size {
		if _, err := f.WriteAt(erased(size-current), int64(current)); err != nil {
			f.Close()
			return nil, errors.Wrap(err, errors.ErrStorageWrite, "初始化镜像失败")
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return nil, errors.Wrap(err, errors.ErrStorageWrite)
		}
	}

	return &FileMedium{file: f, size: size}, nil
}

// Read 读取
func (m *FileMedium) Read(addr, size int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkBounds(addr, size, m.size); err != nil {
		return nil, err
	}
	p := make([]byte, size)
	if _, err := m.file.ReadAt(p, int64(addr)); err != nil {
		return nil, errors.Wrapf(err, errors.ErrStorageRead, "读取地址 %d 失败", addr)
	}
	return p, nil
}

// Write 写入并同步到磁盘，内容相同时跳过
func (m *FileMedium) Write(addr int, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkBounds(addr, len(p), m.size); err != nil {
		return err
	}

	current := make([]byte, len(p))
	if _, err := m.file.ReadAt(current, int64(addr)); err != nil {
		return errors.Wrapf(err, errors.ErrStorageRead, "读取地址 %d 失败", addr)
	}
	if bytes.Equal(current, p) {
		return nil
	}

	if _, err := m.file.WriteAt(p, int64(addr)); err != nil {
		return errors.Wrapf(err, errors.ErrStorageWrite, "写入地址 %d 失败", addr)
	}
	if err := m.file.Sync(); err != nil {
		return errors.Wrap(err, errors.ErrStorageWrite)
	}
	m.writes++
	return nil
}

// Size 介质大小
func (m *FileMedium) Size() int {
	return m.size
}

// Writes 实际写入次数
func (m *FileMedium) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Close 关闭文件
func (m *FileMedium) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file.Close()
}
