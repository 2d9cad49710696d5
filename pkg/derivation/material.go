package derivation

import (
	"fmt"

	"arcula/pkg/crypto_util"
	"arcula/pkg/encode"
	"arcula/pkg/keypair"
)

// Material 是一个节点派生完成后持有的全部密钥: 支出密钥、签名密钥对和加密密钥。
type Material struct {
	Key        *ChildKey
	Signing    *keypair.KeyPair
	Encryption []byte
}

// Root 从种子派生根节点材料: FromSeed(PRF(seed, 0x00 || identity))。
// 根节点的签名密钥对就是它自己的密钥对，根公钥即冷存储公钥。
func Root(seed []byte, id uint64, tag string) (*Material, error) {
	if len(seed) == 0 {
		return nil, keypair.ErrEmptySeed
	}
	identity, err := encode.Identity(id, tag)
	if err != nil {
		return nil, err
	}

	k := crypto_util.PRF(seed, encode.Labeled(labelRoot, identity))
	defer keypair.Zero(k)

	kp, err := keypair.FromSeed(k)
	if err != nil {
		return nil, fmt.Errorf("派生根密钥失败: %w", err)
	}
	enc, err := EncryptionKey(kp, id, tag)
	if err != nil {
		kp.Destroy()
		return nil, err
	}
	return &Material{
		Key:        &ChildKey{Pair: kp, Public: kp.PublicKey()},
		Signing:    kp,
		Encryption: enc,
	}, nil
}

// Child 派生子节点的支出密钥和签名密钥。
// NonHardened 边始终走公钥路径，子节点不持有秘密。
func Child(parent *Material, id uint64, tag string, mode Mode) (*Material, error) {
	if parent == nil || parent.Key == nil {
		return nil, ErrNilParent
	}

	var pm ParentMaterial = parent.Key.Material()
	if mode == NonHardened {
		pm = PublicMaterial{Key: parent.Key.Public}
	}

	key, err := Derive(pm, id, tag, mode)
	if err != nil {
		return nil, err
	}
	signing, err := DeriveSigning(parent.Signing, id, tag)
	if err != nil {
		key.Destroy()
		return nil, err
	}
	enc, err := EncryptionKey(signing, id, tag)
	if err != nil {
		key.Destroy()
		signing.Destroy()
		return nil, err
	}
	return &Material{Key: key, Signing: signing, Encryption: enc}, nil
}

// Destroy 擦除所有秘密
func (m *Material) Destroy() {
	if m == nil {
		return
	}
	m.Key.Destroy()
	m.Signing.Destroy()
	keypair.Zero(m.Encryption)
}
