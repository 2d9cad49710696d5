// Package derivation 实现确定性的单向子密钥派生。
//
// 所有派生输入都带有一个字节的域分隔标签，后接节点身份的规范编码
// (id || len(tag) || tag)，因此不同身份、不同用途的输出彼此独立:
//
//	0x00  根密钥
//	0x01  hardened 子密钥
//	0x02  签名密钥
//	0x03  non-hardened 公钥调整量
//	0x04  节点加密密钥
//	0x05  边加密密钥
package derivation

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"

	"arcula/pkg/crypto_util"
	"arcula/pkg/encode"
	"arcula/pkg/keypair"
)

const (
	labelRoot     byte = 0x00
	labelHardened byte = 0x01
	labelSigning  byte = 0x02
	labelTweak    byte = 0x03
	labelEncrypt  byte = 0x04
	labelEdge     byte = 0x05
)

// ParentMaterial 是派生所需的父节点材料，只有两种取值:
// SecretMaterial (持有秘密) 和 PublicMaterial (只持有公钥)。
type ParentMaterial interface {
	PublicKey() *btcec.PublicKey
	parentMaterial()
}

// SecretMaterial 持有父节点完整密钥对
type SecretMaterial struct {
	Key *keypair.KeyPair
}

func (m SecretMaterial) PublicKey() *btcec.PublicKey {
	if m.Key == nil {
		return nil
	}
	return m.Key.PublicKey()
}

func (SecretMaterial) parentMaterial() {}

// PublicMaterial 只持有父节点公钥
type PublicMaterial struct {
	Key *btcec.PublicKey
}

func (m PublicMaterial) PublicKey() *btcec.PublicKey { return m.Key }

func (PublicMaterial) parentMaterial() {}

// ChildKey 是一次派生的结果。Pair 为 nil 表示只读 (watch-only) 节点。
type ChildKey struct {
	Pair   *keypair.KeyPair
	Public *btcec.PublicKey
}

// WatchOnly 返回该子密钥是否不含秘密
func (c *ChildKey) WatchOnly() bool {
	return c.Pair == nil
}

// Material 把子密钥转成继续向下派生时使用的父节点材料
func (c *ChildKey) Material() ParentMaterial {
	if c.Pair != nil {
		return SecretMaterial{Key: c.Pair}
	}
	return PublicMaterial{Key: c.Public}
}

// Destroy 擦除子密钥中的秘密
func (c *ChildKey) Destroy() {
	if c != nil && c.Pair != nil {
		c.Pair.Destroy()
	}
}

// Derive 根据父节点材料、子节点身份和模式派生子密钥。
//
// Hardened: k = PRF(parentSecret, 0x01 || identity)，子密钥为 FromSeed(k)。
// NonHardened: t = PRF(parentPub, 0x03 || identity)，子公钥为 parentPub + t·G;
// 若提供了父秘密，子秘密为 parentSecret + t。两条路径得到同一个公钥。
func Derive(parent ParentMaterial, id uint64, tag string, mode Mode) (*ChildKey, error) {
	if parent == nil || parent.PublicKey() == nil {
		return nil, ErrNilParent
	}
	identity, err := encode.Identity(id, tag)
	if err != nil {
		return nil, err
	}

	switch mode {
	case Hardened:
		sm, ok := parent.(SecretMaterial)
		if !ok || sm.Key.Secret().Destroyed() {
			return nil, &MissingSecretError{ID: id, Tag: tag}
		}
		kp, err := deriveKeyed(sm.Key.Secret(), labelHardened, identity)
		if err != nil {
			return nil, err
		}
		return &ChildKey{Pair: kp, Public: kp.PublicKey()}, nil

	case NonHardened:
		return deriveTweaked(parent, identity)

	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidMode, mode)
	}
}

// DeriveSigning 派生子节点的签名密钥对，以父节点的签名秘密为 PRF 密钥。
// 签名密钥与子节点的支出密钥使用不同标签，两者互不相关。
func DeriveSigning(parentSigning *keypair.KeyPair, id uint64, tag string) (*keypair.KeyPair, error) {
	if parentSigning == nil {
		return nil, ErrNilParent
	}
	identity, err := encode.Identity(id, tag)
	if err != nil {
		return nil, err
	}
	kp, err := deriveKeyed(parentSigning.Secret(), labelSigning, identity)
	if err != nil {
		return nil, fmt.Errorf("派生签名密钥失败: %w", err)
	}
	return kp, nil
}

// Tweak 计算 non-hardened 边的调整量 t = PRF(parentPub, 0x03 || identity)。
func Tweak(parentPub *btcec.PublicKey, id uint64, tag string) (*btcec.ModNScalar, error) {
	identity, err := encode.Identity(id, tag)
	if err != nil {
		return nil, err
	}
	return tweak(parentPub, identity)
}

func tweak(parentPub *btcec.PublicKey, identity []byte) (*btcec.ModNScalar, error) {
	digest := crypto_util.PRF(parentPub.SerializeCompressed(), encode.Labeled(labelTweak, identity))
	defer keypair.Zero(digest)

	var t btcec.ModNScalar
	if overflow := t.SetByteSlice(digest); overflow || t.IsZero() {
		return nil, ErrInvalidChild
	}
	return &t, nil
}

func deriveKeyed(secret *keypair.Secret, label byte, identity []byte) (*keypair.KeyPair, error) {
	var kp *keypair.KeyPair
	err := secret.WithBytes(func(b []byte) error {
		seed := crypto_util.PRF(b, encode.Labeled(label, identity))
		defer keypair.Zero(seed)

		var err error
		kp, err = keypair.FromSeed(seed)
		return err
	})
	return kp, err
}

func deriveTweaked(parent ParentMaterial, identity []byte) (*ChildKey, error) {
	t, err := tweak(parent.PublicKey(), identity)
	if err != nil {
		return nil, err
	}
	defer t.Zero()

	if sm, ok := parent.(SecretMaterial); ok && !sm.Key.Secret().Destroyed() {
		var kp *keypair.KeyPair
		err := sm.Key.WithScalar(func(k *btcec.ModNScalar) error {
			var child btcec.ModNScalar
			child.Set(k).Add(t)
			defer child.Zero()

			var err error
			kp, err = keypair.FromScalar(&child)
			if err != nil {
				return ErrInvalidChild
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &ChildKey{Pair: kp, Public: kp.PublicKey()}, nil
	}

	pub, err := addTweak(parent.PublicKey(), t)
	if err != nil {
		return nil, err
	}
	return &ChildKey{Public: pub}, nil
}

// addTweak 计算 P + t·G
func addTweak(parent *btcec.PublicKey, t *btcec.ModNScalar) (*btcec.PublicKey, error) {
	var p, tG, sum btcec.JacobianPoint
	parent.AsJacobian(&p)
	btcec.ScalarBaseMultNonConst(t, &tG)
	btcec.AddNonConst(&p, &tG, &sum)
	sum.ToAffine()

	if sum.X.IsZero() && sum.Y.IsZero() {
		return nil, ErrInvalidChild
	}
	return btcec.NewPublicKey(&sum.X, &sum.Y), nil
}
