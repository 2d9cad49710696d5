// Package keypair 封装 secp256k1 密钥对: 秘密标量、压缩公钥以及确定性签名。
package keypair

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"

	"arcula/pkg/crypto_util"
)

const (
	// SecretLen 是秘密标量的字节长度。
	SecretLen = 32
	// PublicKeyLen 是压缩公钥的字节长度。
	PublicKeyLen = btcec.PubKeyBytesLenCompressed

	// maxSeedAttempts 限制 FromSeed 的重试次数; 每次失败的概率约为 2^-128。
	maxSeedAttempts = 256
)

var (
	ErrInvalidSecret = errors.New("无效的秘密标量 (为零或超出曲线阶)")
	ErrEmptySeed     = errors.New("种子为空")
)

// KeyPair 是一对 secp256k1 密钥。秘密部分保存在 Secret 中，可随时销毁。
type KeyPair struct {
	secret *Secret
	pub    *btcec.PublicKey
}

// FromSeed 从任意长度的种子确定性地生成密钥对。
// 依次计算 SHA3-512(seed || counter) 的前 32 字节，直到得到合法的非零标量。
func FromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) == 0 {
		return nil, ErrEmptySeed
	}

	var counter [4]byte
	for i := uint32(0); i < maxSeedAttempts; i++ {
		binary.BigEndian.PutUint32(counter[:], i)
		digest := crypto_util.SHA3_512Half(seed, counter[:])

		kp, err := FromBytes(digest)
		Zero(digest)
		if errors.Is(err, ErrInvalidSecret) {
			continue
		}
		return kp, err
	}
	return nil, fmt.Errorf("种子派生失败: %w", ErrInvalidSecret)
}

// FromBytes 把 32 字节大端标量解析为密钥对。
func FromBytes(b []byte) (*KeyPair, error) {
	if len(b) != SecretLen {
		return nil, fmt.Errorf("秘密长度必须为 %d 字节, 得到 %d", SecretLen, len(b))
	}
	var k btcec.ModNScalar
	overflow := k.SetByteSlice(b)
	defer k.Zero()
	if overflow || k.IsZero() {
		return nil, ErrInvalidSecret
	}
	return FromScalar(&k)
}

// FromScalar 根据标量 k 构造密钥对。k 的内容会被复制，调用方负责清零 k。
func FromScalar(k *btcec.ModNScalar) (*KeyPair, error) {
	if k == nil || k.IsZero() {
		return nil, ErrInvalidSecret
	}

	var b [SecretLen]byte
	k.PutBytes(&b)
	secret := NewSecret(b[:])
	Zero(b[:])

	return &KeyPair{secret: secret, pub: ScalarBaseMult(k)}, nil
}

// ScalarBaseMult 计算 k·G。
func ScalarBaseMult(k *btcec.ModNScalar) *btcec.PublicKey {
	var point btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(k, &point)
	point.ToAffine()
	return btcec.NewPublicKey(&point.X, &point.Y)
}

// PublicKey 返回公钥。
func (kp *KeyPair) PublicKey() *btcec.PublicKey {
	return kp.pub
}

// Secret 返回秘密标量的包装。
func (kp *KeyPair) Secret() *Secret {
	return kp.secret
}

// SerializePublic 返回 33 字节压缩公钥。
func (kp *KeyPair) SerializePublic() []byte {
	return kp.pub.SerializeCompressed()
}

// Fingerprint 返回公钥的短标识 (Blake3 前 4 字节的 Hex)，用于日志和展示。
func (kp *KeyPair) Fingerprint() string {
	return Fingerprint(kp.pub)
}

// WithScalar 在回调作用域内提供秘密标量，回调结束后清零。
func (kp *KeyPair) WithScalar(fn func(k *btcec.ModNScalar) error) error {
	return kp.secret.WithBytes(func(b []byte) error {
		var k btcec.ModNScalar
		k.SetByteSlice(b)
		defer k.Zero()
		return fn(&k)
	})
}

// Sign 用该密钥对 message 签名。相同输入总是得到相同签名。
func (kp *KeyPair) Sign(scheme Scheme, message []byte) ([]byte, error) {
	var sig []byte
	err := kp.secret.WithBytes(func(b []byte) error {
		priv, _ := btcec.PrivKeyFromBytes(b)
		defer priv.Zero()

		var err error
		sig, err = sign(scheme, priv, message)
		return err
	})
	return sig, err
}

// Destroy 擦除秘密部分; 公钥仍然可用。
func (kp *KeyPair) Destroy() {
	if kp == nil {
		return
	}
	kp.secret.Destroy()
}

// Fingerprint 返回任意公钥的短标识。
func Fingerprint(pub *btcec.PublicKey) string {
	if pub == nil {
		return ""
	}
	return hex.EncodeToString(crypto_util.Blake3(pub.SerializeCompressed())[:4])
}

// ParsePublicKey 解析压缩或非压缩的 secp256k1 公钥。
func ParsePublicKey(b []byte) (*btcec.PublicKey, error) {
	pub, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("无效的公钥: %w", err)
	}
	return pub, nil
}

// ParsePublicKeyHex 解析 Hex 编码的公钥。
func ParsePublicKeyHex(s string) (*btcec.PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("无效的公钥 Hex: %w", err)
	}
	return ParsePublicKey(b)
}
