package storage

import (
	"bytes"
	"sync"
)

// MemoryMedium 内存介质，进程退出后内容丢失
type MemoryMedium struct {
	mu     sync.Mutex
	data   []byte
	writes int
}

// NewMemoryMedium 创建已擦除的内存介质
func NewMemoryMedium(size int) *MemoryMedium {
	return &MemoryMedium{data: erased(size)}
}

// Read 读取
func (m *MemoryMedium) Read(addr, size int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkBounds(addr, size, len(m.data)); err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, m.data[addr:addr+size])
	return out, nil
}

// Write 写入，内容相同时跳过
func (m *MemoryMedium) Write(addr int, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkBounds(addr, len(p), len(m.data)); err != nil {
		return err
	}
	if bytes.Equal(m.data[addr:addr+len(p)], p) {
		return nil
	}
	copy(m.data[addr:], p)
	m.writes++
	return nil
}

// Size 介质大小
func (m *MemoryMedium) Size() int {
	return len(m.data)
}

// Writes 实际写入次数
func (m *MemoryMedium) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Close 无操作
func (m *MemoryMedium) Close() error {
	return nil
}
