package kms

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"

	"arcula/pkg/keypair"
	"arcula/pkg/safe_random"
)

// keyEntry 是内部存储结构，包含私钥（敏感数据）和元数据
type keyEntry struct {
	Metadata KeyMetadata
	Key      *keypair.KeyPair
}

// LocalKMS 是 KeyManager 接口的本地内存实现。
// 它模拟了一个硬件安全模块 (HSM)，私钥存储在内存中，不直接暴露给外部。
type LocalKMS struct {
	mu   sync.RWMutex
	keys map[string]*keyEntry
}

// NewLocalKMS 创建一个新的 LocalKMS 实例。
func NewLocalKMS() *LocalKMS {
	return &LocalKMS{
		keys: make(map[string]*keyEntry),
	}
}

// CreateKey 生成一个随机的 secp256k1 密钥。
func (kms *LocalKMS) CreateKey(kType KeyType) (string, error) {
	if kType != KeyTypeSecp256k1 {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, kType)
	}

	var kp *keypair.KeyPair
	for kp == nil {
		raw, err := safe_random.GenerateRandomBytes(keypair.SecretLen)
		if err != nil {
			return "", err
		}
		kp, err = keypair.FromBytes(raw)
		keypair.Zero(raw)
		if err != nil && !errors.Is(err, keypair.ErrInvalidSecret) {
			return "", err
		}
	}
	return kms.store(kp, false)
}

// ImportKey 保存 kp 秘密的一份副本。
func (kms *LocalKMS) ImportKey(kp *keypair.KeyPair) (string, error) {
	if kp == nil {
		return "", fmt.Errorf("导入的密钥为空")
	}

	var cp *keypair.KeyPair
	err := kp.Secret().WithBytes(func(b []byte) error {
		var err error
		cp, err = keypair.FromBytes(b)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("导入密钥失败: %w", err)
	}
	return kms.store(cp, true)
}

func (kms *LocalKMS) store(kp *keypair.KeyPair, imported bool) (string, error) {
	// 生成一个随机 Key ID
	keyID, err := safe_random.GenerateRandomHexString(16)
	if err != nil {
		kp.Destroy()
		return "", fmt.Errorf("生成 KeyID 失败: %w", err)
	}

	kms.mu.Lock()
	defer kms.mu.Unlock()
	kms.keys[keyID] = &keyEntry{
		Metadata: KeyMetadata{
			KeyID:       keyID,
			Type:        KeyTypeSecp256k1,
			Fingerprint: kp.Fingerprint(),
			Imported:    imported,
			CreatedAt:   time.Now().Unix(),
			Enabled:     true,
		},
		Key: kp,
	}
	return keyID, nil
}

// entry 查找启用中的密钥，调用方需持有读锁
func (kms *LocalKMS) entry(keyID string) (*keyEntry, error) {
	entry, exists := kms.keys[keyID]
	if !exists {
		return nil, ErrKeyNotFound
	}
	if !entry.Metadata.Enabled {
		return nil, ErrKeyDisabled
	}
	return entry, nil
}

// GetPublicKey 获取指定密钥 ID 的公钥。
func (kms *LocalKMS) GetPublicKey(keyID string) (*btcec.PublicKey, error) {
	kms.mu.RLock()
	defer kms.mu.RUnlock()

	entry, err := kms.entry(keyID)
	if err != nil {
		return nil, err
	}
	return entry.Key.PublicKey(), nil
}

func (kms *LocalKMS) Metadata(keyID string) (KeyMetadata, error) {
	kms.mu.RLock()
	defer kms.mu.RUnlock()

	entry, exists := kms.keys[keyID]
	if !exists {
		return KeyMetadata{}, ErrKeyNotFound
	}
	return entry.Metadata, nil
}

// Sign 使用指定的密钥对数据进行签名。
func (kms *LocalKMS) Sign(keyID string, scheme keypair.Scheme, data []byte) ([]byte, error) {
	kms.mu.RLock()
	defer kms.mu.RUnlock()

	entry, err := kms.entry(keyID)
	if err != nil {
		return nil, err
	}
	return entry.Key.Sign(scheme, data)
}

// Verify 验证签名是否有效。
func (kms *LocalKMS) Verify(keyID string, scheme keypair.Scheme, data []byte, signature []byte) error {
	kms.mu.RLock()
	defer kms.mu.RUnlock()

	entry, err := kms.entry(keyID)
	if err != nil {
		return err
	}
	if !keypair.Verify(scheme, entry.Key.PublicKey(), data, signature) {
		return ErrInvalidSignature
	}
	return nil
}

func (kms *LocalKMS) Disable(keyID string) error {
	kms.mu.Lock()
	defer kms.mu.Unlock()

	entry, exists := kms.keys[keyID]
	if !exists {
		return ErrKeyNotFound
	}
	entry.Metadata.Enabled = false
	return nil
}

// DeleteKey 擦除私钥并移除记录。
func (kms *LocalKMS) DeleteKey(keyID string) error {
	kms.mu.Lock()
	defer kms.mu.Unlock()

	entry, exists := kms.keys[keyID]
	if !exists {
		return ErrKeyNotFound
	}
	entry.Key.Destroy()
	delete(kms.keys, keyID)
	return nil
}

// Close 擦除所有密钥
func (kms *LocalKMS) Close() {
	kms.mu.Lock()
	defer kms.mu.Unlock()

	for id, entry := range kms.keys {
		entry.Key.Destroy()
		delete(kms.keys, id)
	}
}
