package kms

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"

	"arcula/pkg/keypair"
)

// KeyType 定义了支持的密钥类型
type KeyType string

const (
	KeyTypeSecp256k1 KeyType = "Secp256k1" // 证书签名密钥
)

// KeyMetadata 包含密钥的元数据，不包含敏感的私钥信息
type KeyMetadata struct {
	KeyID       string  `json:"key_id"`      // 密钥唯一标识符
	Type        KeyType `json:"type"`        // 密钥类型
	Fingerprint string  `json:"fingerprint"` // 公钥短标识
	Imported    bool    `json:"imported"`    // 是否由外部派生后导入
	CreatedAt   int64   `json:"created_at"`  // 创建时间戳
	Enabled     bool    `json:"enabled"`     // 是否启用
}

// KeyManager 定义了密钥管理服务的核心行为。
// 委托出去的签名密钥保存在这里，调用方只拿到 KeyID，私钥不离开 KMS 的边界。
// 接口可以替换为 HSM 或云端 KMS 的实现。
type KeyManager interface {
	// CreateKey 生成一个新的随机密钥，并返回其 ID。
	CreateKey(kType KeyType) (string, error)

	// ImportKey 导入一个已派生的密钥对。KMS 保存秘密的副本，调用方可以随后销毁原密钥。
	ImportKey(kp *keypair.KeyPair) (string, error)

	// GetPublicKey 获取指定密钥 ID 的公钥。
	GetPublicKey(keyID string) (*btcec.PublicKey, error)

	// Metadata 返回密钥的元数据。
	Metadata(keyID string) (KeyMetadata, error)

	// Sign 使用指定的密钥和签名方案对数据进行签名。
	Sign(keyID string, scheme keypair.Scheme, data []byte) ([]byte, error)

	// Verify 验证签名是否有效。
	Verify(keyID string, scheme keypair.Scheme, data []byte, signature []byte) error

	// Disable 停用密钥，之后的签名请求都会失败。
	Disable(keyID string) error

	// DeleteKey 擦除并删除密钥。
	DeleteKey(keyID string) error
}

var (
	ErrKeyNotFound      = errors.New("密钥未找到")
	ErrKeyDisabled      = errors.New("密钥已禁用")
	ErrUnsupportedType  = errors.New("不支持的密钥类型")
	ErrInvalidSignature = errors.New("签名无效")
)
