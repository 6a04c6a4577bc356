package lock

import (
	"github.com/wfunc/pin-lock/internal/errors"
)

// MaxCredentials 凭据存储容量
const MaxCredentials = 10

// CredentialStore 有界的PIN摘要集合，插入顺序即索引
type CredentialStore struct {
	hasher  Hasher
	digests [MaxCredentials]Digest
	count   int
}

// NewCredentialStore 创建空的凭据存储
func NewCredentialStore(h Hasher) *CredentialStore {
	return &CredentialStore{hasher: h}
}

// Add 添加PIN，存储已满时返回 ErrCapacityExceeded 且内容不变
func (s *CredentialStore) Add(pin string) error {
	return s.addDigest(s.hasher.Sum([]byte(pin)))
}

func (s *CredentialStore) addDigest(d Digest) error {
	if s.count >= MaxCredentials {
		return errors.Newf(errors.ErrCapacityExceeded, "容量: %d", MaxCredentials)
	}
	s.digests[s.count] = d
	s.count++
	return nil
}

// Verify 校验PIN是否匹配任一已存储的摘要
func (s *CredentialStore) Verify(pin string) bool {
	d := s.hasher.Sum([]byte(pin))
	found := false
	// 完整扫描，不提前返回
	for i := 0; i < s.count; i++ {
		if s.digests[i].Equal(d) {
			found = true
		}
	}
	return found
}

// RemoveAt 按索引删除，后续条目依次前移
func (s *CredentialStore) RemoveAt(i int) error {
	if i < 0 || i >= s.count {
		return errors.Newf(errors.ErrOutOfRange, "索引: %d, 数量: %d", i, s.count)
	}
	copy(s.digests[i:s.count-1], s.digests[i+1:s.count])
	s.count--
	s.digests[s.count] = Digest{}
	return nil
}

// Remove 删除第一个匹配的PIN，没有匹配时返回 ErrNotFound
func (s *CredentialStore) Remove(pin string) error {
	d := s.hasher.Sum([]byte(pin))
	for i := 0; i < s.count; i++ {
		if s.digests[i].Equal(d) {
			return s.RemoveAt(i)
		}
	}
	return errors.New(errors.ErrNotFound, "没有匹配的凭据")
}

// Clear 清空存储
func (s *CredentialStore) Clear() {
	s.digests = [MaxCredentials]Digest{}
	s.count = 0
}

// Len 已占用的槽位数
func (s *CredentialStore) Len() int {
	return s.count
}

// Full 是否已满
func (s *CredentialStore) Full() bool {
	return s.count >= MaxCredentials
}

// Digests 返回已存储摘要的副本
func (s *CredentialStore) Digests() []Digest {
	out := make([]Digest, s.count)
	copy(out, s.digests[:s.count])
	return out
}
