package crypto_util

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"arcula/pkg/safe_random"
)

var ErrSealedTooShort = errors.New("密文长度不足")

// NewGCM 用 key 创建 AES-GCM，key 长度决定 AES-128/192/256
func NewGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal 用 AES-GCM 加密 plaintext，输出 nonce || ciphertext，nonce 随机生成
func Seal(key, plaintext, additional []byte) ([]byte, error) {
	gcm, err := NewGCM(key)
	if err != nil {
		return nil, err
	}
	nonce, err := safe_random.GenerateRandomBytes(gcm.NonceSize())
	if err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, additional), nil
}

// Open 是 Seal 的逆操作，密钥或附加数据不符时返回错误
func Open(key, sealed, additional []byte) ([]byte, error) {
	gcm, err := NewGCM(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize()+gcm.Overhead() {
		return nil, ErrSealedTooShort
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, additional)
	if err != nil {
		return nil, fmt.Errorf("解密失败: %w", err)
	}
	return plaintext, nil
}
