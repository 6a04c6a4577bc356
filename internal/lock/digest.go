package lock

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// DigestSize 摘要固定宽度（字节）
const DigestSize = 32

// Digest PIN的单向摘要，存储中只保存摘要
type Digest [DigestSize]byte

// Equal 恒定时间比较
func (d Digest) Equal(other Digest) bool {
	return subtle.ConstantTimeCompare(d[:], other[:]) == 1
}

// Short 摘要前缀，仅用于调试工具展示
func (d Digest) Short() string {
	return hex.EncodeToString(d[:4])
}

// Hasher 确定性、定宽、无密钥的摘要函数
type Hasher interface {
	Sum(pin []byte) Digest
}

// HasherFunc 函数适配器
type HasherFunc func(pin []byte) Digest

// Sum 实现Hasher接口
func (f HasherFunc) Sum(pin []byte) Digest {
	return f(pin)
}

// argon2id 参数（面向嵌入式设备，内存占用保持在16MB）
const (
	argon2Time    = 1
	argon2Memory  = 16 * 1024
	argon2Threads = 1
)

// NewHasher 按算法名创建摘要函数
//
// salt 只在 argon2id 下使用，是设备固定值而不是密钥，
// 相同的PIN在同一设备上总是得到相同的摘要。
func NewHasher(algorithm string, salt string) (Hasher, error) {
	switch algorithm {
	case "blake2b", "":
		return HasherFunc(func(pin []byte) Digest {
			return blake2b.Sum256(pin)
		}), nil
	case "sha3":
		return HasherFunc(func(pin []byte) Digest {
			return sha3.Sum256(pin)
		}), nil
	case "argon2id":
		s := []byte(salt)
		return HasherFunc(func(pin []byte) Digest {
			var d Digest
			copy(d[:], argon2.IDKey(pin, s, argon2Time, argon2Memory, argon2Threads, DigestSize))
			return d
		}), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", algorithm)
	}
}
