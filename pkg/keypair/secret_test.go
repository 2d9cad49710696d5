package keypair

import (
	"testing"
)

func TestZero(t *testing.T) {
	t.Run("zeroizes non-empty slice", func(t *testing.T) {
		data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
		Zero(data)

		for i, b := range data {
			if b != 0 {
				t.Errorf("byte at index %d should be 0, got %d", i, b)
			}
		}
	})

	t.Run("handles nil slice", func(t *testing.T) {
		var data []byte
		Zero(data)
	})
}

func TestSecret(t *testing.T) {
	src := []byte{1, 2, 3}
	s := NewSecret(src)
	Zero(src)

	err := s.WithBytes(func(b []byte) error {
		if b[0] != 1 || b[2] != 3 {
			t.Errorf("Secret 应该持有独立副本, 得到 %v", b)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithBytes 失败: %v", err)
	}

	c, err := s.Copy()
	if err != nil {
		t.Fatalf("Copy 失败: %v", err)
	}
	if !s.Equal(c) {
		t.Error("副本内容应相同")
	}

	s.Destroy()
	if !s.Destroyed() {
		t.Error("Destroy 之后 Destroyed() 应返回 true")
	}
	if err := s.WithBytes(func([]byte) error { return nil }); err != ErrSecretDestroyed {
		t.Errorf("期望 ErrSecretDestroyed, 得到 %v", err)
	}
	if s.Equal(c) {
		t.Error("已销毁的 Secret 不应与任何内容相等")
	}
	if c.Destroyed() {
		t.Error("销毁原 Secret 不应影响副本")
	}

	var nilSecret *Secret
	if !nilSecret.Destroyed() {
		t.Error("nil Secret 视为已销毁")
	}
	nilSecret.Destroy()
}
