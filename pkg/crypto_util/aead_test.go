package crypto_util

import (
	"bytes"
	"testing"
)

func TestSealOpen(t *testing.T) {
	key := PRF([]byte("edge"), []byte("key"))
	msg := []byte("child encryption key || child secret")

	sealed, err := Seal(key, msg, []byte("ad"))
	if err != nil {
		t.Fatalf("Seal 失败: %v", err)
	}
	got, err := Open(key, sealed, []byte("ad"))
	if err != nil {
		t.Fatalf("Open 失败: %v", err)
	}
	if !bytes.Equal(got, msg) {
		t.Errorf("解密结果不一致: %q", got)
	}

	again, err := Seal(key, msg, []byte("ad"))
	if err != nil {
		t.Fatalf("Seal 失败: %v", err)
	}
	if bytes.Equal(again, sealed) {
		t.Error("两次加密应使用不同的 nonce")
	}
}

func TestOpenRejects(t *testing.T) {
	key := PRF([]byte("edge"), []byte("key"))
	sealed, err := Seal(key, []byte("payload"), nil)
	if err != nil {
		t.Fatalf("Seal 失败: %v", err)
	}

	if _, err := Open(PRF([]byte("other"), nil), sealed, nil); err == nil {
		t.Error("错误的密钥应解密失败")
	}
	if _, err := Open(key, sealed, []byte("ad")); err == nil {
		t.Error("附加数据不一致应解密失败")
	}
	tampered := append([]byte{}, sealed...)
	tampered[len(tampered)-1] ^= 1
	if _, err := Open(key, tampered, nil); err == nil {
		t.Error("篡改后的密文应解密失败")
	}
	if _, err := Open(key, sealed[:8], nil); err != ErrSealedTooShort {
		t.Errorf("过短的密文应返回 ErrSealedTooShort, 得到 %v", err)
	}
}
