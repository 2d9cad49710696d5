package derivation

import (
	"fmt"

	"arcula/pkg/crypto_util"
	"arcula/pkg/encode"
	"arcula/pkg/keypair"
)

// EncryptionKey 派生节点的加密密钥: PRF(signingSecret, 0x04 || identity)。
// 签名密钥沿树一路 hardened 派生，所以观察节点同样拥有加密密钥。
func EncryptionKey(signing *keypair.KeyPair, id uint64, tag string) ([]byte, error) {
	if signing == nil {
		return nil, ErrNilParent
	}
	identity, err := encode.Identity(id, tag)
	if err != nil {
		return nil, err
	}
	var enc []byte
	err = signing.Secret().WithBytes(func(b []byte) error {
		enc = crypto_util.PRF(b, encode.Labeled(labelEncrypt, identity))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("派生加密密钥失败: %w", err)
	}
	return enc, nil
}

// EdgeKey 派生父节点到子节点 (id, tag) 这条边的密钥: PRF(parentEnc, 0x05 || identity)
func EdgeKey(parentEnc []byte, id uint64, tag string) ([]byte, error) {
	if len(parentEnc) == 0 {
		return nil, ErrNilParent
	}
	identity, err := encode.Identity(id, tag)
	if err != nil {
		return nil, err
	}
	return crypto_util.PRF(parentEnc, encode.Labeled(labelEdge, identity)), nil
}

// EdgeMaterial 是从加密边中解出的子节点密钥。Spend 为 nil 表示观察节点。
type EdgeMaterial struct {
	Encryption []byte
	Spend      *keypair.KeyPair
}

// Destroy 擦除所有秘密
func (m *EdgeMaterial) Destroy() {
	if m == nil {
		return
	}
	keypair.Zero(m.Encryption)
	m.Spend.Destroy()
}

// SealEdge 用边密钥加密子节点的加密密钥和支出秘密 (观察节点只有加密密钥)。
// 子节点身份作为附加数据，密文不能挪到其他边上使用。
func SealEdge(parentEnc []byte, id uint64, tag string, child *Material) ([]byte, error) {
	if child == nil || child.Key == nil || len(child.Encryption) != crypto_util.PRFSize {
		return nil, ErrEdgePayload
	}
	key, err := EdgeKey(parentEnc, id, tag)
	if err != nil {
		return nil, err
	}
	defer keypair.Zero(key)
	identity, err := encode.Identity(id, tag)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, 0, crypto_util.PRFSize+keypair.SecretLen)
	payload = append(payload, child.Encryption...)
	defer func() { keypair.Zero(payload) }()
	if child.Key.Pair != nil {
		err := child.Key.Pair.Secret().WithBytes(func(b []byte) error {
			payload = append(payload, b...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return crypto_util.Seal(key, payload, identity)
}

// OpenEdge 是 SealEdge 的逆操作
func OpenEdge(parentEnc []byte, id uint64, tag string, sealed []byte) (*EdgeMaterial, error) {
	key, err := EdgeKey(parentEnc, id, tag)
	if err != nil {
		return nil, err
	}
	defer keypair.Zero(key)
	identity, err := encode.Identity(id, tag)
	if err != nil {
		return nil, err
	}

	payload, err := crypto_util.Open(key, sealed, identity)
	if err != nil {
		return nil, err
	}
	defer keypair.Zero(payload)

	switch len(payload) {
	case crypto_util.PRFSize:
		return &EdgeMaterial{Encryption: append([]byte(nil), payload...)}, nil
	case crypto_util.PRFSize + keypair.SecretLen:
		spend, err := keypair.FromBytes(payload[crypto_util.PRFSize:])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEdgePayload, err)
		}
		return &EdgeMaterial{
			Encryption: append([]byte(nil), payload[:crypto_util.PRFSize]...),
			Spend:      spend,
		}, nil
	default:
		return nil, fmt.Errorf("%w: 长度 %d", ErrEdgePayload, len(payload))
	}
}
