package keypair

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"arcula/pkg/crypto_util"
)

// Scheme 定义证书签名使用的算法。
type Scheme uint8

const (
	// SchemeECDSA: SHA-256 摘要，RFC6979 确定性 nonce，BIP66 规范 DER (low-S) 编码。
	SchemeECDSA Scheme = 1
	// SchemeSchnorr: BIP340 Schnorr 签名，摘要为带标签哈希。
	SchemeSchnorr Scheme = 2
)

// schnorrTag 是 BIP340 带标签哈希使用的域分隔标签。
var schnorrTag = []byte("arcula/certificate")

func (s Scheme) String() string {
	switch s {
	case SchemeECDSA:
		return "ecdsa"
	case SchemeSchnorr:
		return "schnorr"
	default:
		return fmt.Sprintf("scheme(%d)", uint8(s))
	}
}

// Valid 返回是否为已知签名方案。
func (s Scheme) Valid() bool {
	return s == SchemeECDSA || s == SchemeSchnorr
}

// ParseScheme 解析配置中的方案名称 ("ecdsa" / "schnorr")。
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ecdsa":
		return SchemeECDSA, nil
	case "schnorr", "bip340":
		return SchemeSchnorr, nil
	default:
		return 0, fmt.Errorf("不支持的签名方案: %s", name)
	}
}

// Digest 返回方案签名前对消息计算的 32 字节摘要。
func (s Scheme) Digest(message []byte) ([]byte, error) {
	switch s {
	case SchemeECDSA:
		return crypto_util.SHA256(message), nil
	case SchemeSchnorr:
		return chainhash.TaggedHash(schnorrTag, message)[:], nil
	default:
		return nil, fmt.Errorf("不支持的签名方案: %s", s)
	}
}

func sign(s Scheme, priv *btcec.PrivateKey, message []byte) ([]byte, error) {
	digest, err := s.Digest(message)
	if err != nil {
		return nil, err
	}

	switch s {
	case SchemeECDSA:
		return ecdsa.Sign(priv, digest).Serialize(), nil
	case SchemeSchnorr:
		sig, err := schnorr.Sign(priv, digest)
		if err != nil {
			return nil, fmt.Errorf("schnorr 签名失败: %w", err)
		}
		return sig.Serialize(), nil
	default:
		return nil, fmt.Errorf("不支持的签名方案: %s", s)
	}
}

// Verify 使用公钥 pub 验证 message 上的签名。
// ECDSA 签名必须是规范 DER 编码 (low-S)，否则视为无效。
func Verify(s Scheme, pub *btcec.PublicKey, message, signature []byte) bool {
	if pub == nil {
		return false
	}
	digest, err := s.Digest(message)
	if err != nil {
		return false
	}

	switch s {
	case SchemeECDSA:
		sig, err := ecdsa.ParseDERSignature(signature)
		if err != nil {
			return false
		}
		if !bytes.Equal(sig.Serialize(), signature) {
			return false
		}
		return sig.Verify(digest, pub)
	case SchemeSchnorr:
		sig, err := schnorr.ParseSignature(signature)
		if err != nil {
			return false
		}
		return sig.Verify(digest, pub)
	default:
		return false
	}
}
