package keypair

import (
	"crypto/subtle"
	"errors"
	"runtime"
	"sync"
)

// ErrSecretDestroyed 表示秘密材料已被擦除或从未存在。
var ErrSecretDestroyed = errors.New("秘密材料已被销毁")

// Zero 用零覆盖字节切片，清除内存中的敏感数据。
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
	runtime.KeepAlive(b)
}

// Secret 包装一段秘密字节 (私钥标量、种子等)。
// 只能通过 WithBytes 在回调作用域内访问，Destroy 之后内容被清零。
type Secret struct {
	mu   sync.RWMutex
	data []byte
}

// NewSecret 复制 b 并返回新的 Secret，调用方可以放心清零原切片。
func NewSecret(b []byte) *Secret {
	data := make([]byte, len(b))
	copy(data, b)
	return &Secret{data: data}
}

// WithBytes 在读锁保护下把底层字节交给 fn。
// fn 不得在回调之外保存或泄露该切片。
func (s *Secret) WithBytes(fn func([]byte) error) error {
	if s == nil {
		return ErrSecretDestroyed
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return ErrSecretDestroyed
	}
	return fn(s.data)
}

// Copy 返回一份独立的 Secret，原 Secret 可单独销毁。
func (s *Secret) Copy() (*Secret, error) {
	var out *Secret
	err := s.WithBytes(func(b []byte) error {
		out = NewSecret(b)
		return nil
	})
	return out, err
}

// Equal 以常数时间比较两个 Secret 的内容。
func (s *Secret) Equal(other *Secret) bool {
	equal := false
	_ = s.WithBytes(func(a []byte) error {
		return other.WithBytes(func(b []byte) error {
			equal = subtle.ConstantTimeCompare(a, b) == 1
			return nil
		})
	})
	return equal
}

// Destroy 清零并释放秘密字节。重复调用是安全的。
func (s *Secret) Destroy() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	Zero(s.data)
	s.data = nil
}

// Destroyed 返回秘密是否已被销毁。
func (s *Secret) Destroyed() bool {
	if s == nil {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data == nil
}
