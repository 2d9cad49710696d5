// Package keystore 以口令加密的形式保存助记词。
// 文件结构参照 Ethereum Keystore V3，但保存的是助记词而不是单个私钥。
package keystore

import (
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"

	"arcula/pkg/crypto_util"
	"arcula/pkg/keypair"
	"arcula/pkg/safe_random"
)

const (
	Version = 3
	Cipher  = "aes-256-gcm"
	KDF     = "scrypt"

	saltLen = 32
)

var (
	ErrMACMismatch        = errors.New("口令错误或数据已损坏 (MAC 不匹配)")
	ErrUnsupportedVersion = errors.New("不支持的 keystore 版本")
	ErrUnsupportedCipher  = errors.New("不支持的加密算法")
)

type EncryptedKeyJSON struct {
	Crypto  CryptoJSON `json:"crypto"`
	Id      string     `json:"id"`
	Version int        `json:"version"`
	// Root 是冷存储公钥，不解密也能确认 keystore 属于哪棵树
	Root string `json:"root,omitempty"`
}

type CryptoJSON struct {
	Cipher       string       `json:"cipher"`
	CipherText   string       `json:"ciphertext"`
	CipherParams CipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"`
	KDFParams    KDFParams    `json:"kdfparams"`
	MAC          string       `json:"mac"`
}

type CipherParams struct {
	IV string `json:"iv"`
}

type KDFParams struct {
	DKLen int    `json:"dklen"`
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
	Salt  string `json:"salt"`
}

// Params 是 scrypt 的代价参数
type Params struct {
	N, R, P int
}

var (
	// StandardParams 与 geth 的标准参数一致
	StandardParams = Params{N: 1 << 18, R: 8, P: 1}
	// LightParams 用于测试和低性能设备
	LightParams = Params{N: 1 << 12, R: 8, P: 6}
)

// EncryptMnemonic 使用标准参数加密助记词
func EncryptMnemonic(mnemonic, password string) (*EncryptedKeyJSON, error) {
	return Encrypt(mnemonic, password, StandardParams)
}

// Encrypt 将助记词使用口令加密为 JSON 结构
func Encrypt(mnemonic, password string, p Params) (*EncryptedKeyJSON, error) {
	salt, err := safe_random.GenerateRandomBytes(saltLen)
	if err != nil {
		return nil, err
	}

	derivedKey, err := scrypt.Key([]byte(password), salt, p.N, p.R, p.P, 32)
	if err != nil {
		return nil, err
	}
	defer keypair.Zero(derivedKey)

	gcm, err := crypto_util.NewGCM(derivedKey)
	if err != nil {
		return nil, err
	}
	nonce, err := safe_random.GenerateRandomBytes(gcm.NonceSize())
	if err != nil {
		return nil, err
	}
	ciphertext := gcm.Seal(nil, nonce, []byte(mnemonic), nil)

	return &EncryptedKeyJSON{
		Version: Version,
		Id:      uuid.NewString(),
		Crypto: CryptoJSON{
			Cipher:       Cipher,
			CipherText:   hex.EncodeToString(ciphertext),
			CipherParams: CipherParams{IV: hex.EncodeToString(nonce)},
			KDF:          KDF,
			KDFParams: KDFParams{
				DKLen: 32,
				N:     p.N,
				R:     p.R,
				P:     p.P,
				Salt:  hex.EncodeToString(salt),
			},
			MAC: hex.EncodeToString(mac(derivedKey, ciphertext)),
		},
	}, nil
}

// DecryptMnemonic 解密 Keystore JSON 获取助记词
func DecryptMnemonic(k *EncryptedKeyJSON, password string) (string, error) {
	if k.Version != Version {
		return "", fmt.Errorf("%w: %d", ErrUnsupportedVersion, k.Version)
	}
	if k.Crypto.Cipher != Cipher || k.Crypto.KDF != KDF {
		return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedCipher, k.Crypto.Cipher, k.Crypto.KDF)
	}

	salt, err := hex.DecodeString(k.Crypto.KDFParams.Salt)
	if err != nil {
		return "", fmt.Errorf("invalid salt: %v", err)
	}
	nonce, err := hex.DecodeString(k.Crypto.CipherParams.IV)
	if err != nil {
		return "", fmt.Errorf("invalid iv: %v", err)
	}
	ciphertext, err := hex.DecodeString(k.Crypto.CipherText)
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext: %v", err)
	}
	want, err := hex.DecodeString(k.Crypto.MAC)
	if err != nil {
		return "", fmt.Errorf("invalid mac: %v", err)
	}

	kp := k.Crypto.KDFParams
	derivedKey, err := scrypt.Key([]byte(password), salt, kp.N, kp.R, kp.P, kp.DKLen)
	if err != nil {
		return "", err
	}
	defer keypair.Zero(derivedKey)

	if subtle.ConstantTimeCompare(want, mac(derivedKey, ciphertext)) != 1 {
		return "", ErrMACMismatch
	}

	gcm, err := crypto_util.NewGCM(derivedKey)
	if err != nil {
		return "", err
	}
	if len(nonce) != gcm.NonceSize() {
		return "", fmt.Errorf("invalid iv length %d", len(nonce))
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %v", err)
	}
	defer keypair.Zero(plaintext)
	return string(plaintext), nil
}

// SaveToFile 保存到文件，权限 0600
func (k *EncryptedKeyJSON) SaveToFile(filename string) error {
	data, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o600)
}

// LoadFromFile 从文件加载
func LoadFromFile(filename string) (*EncryptedKeyJSON, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var k EncryptedKeyJSON
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("解析 keystore 失败: %w", err)
	}
	return &k, nil
}

// mac = SHA256(derivedKey || ciphertext)
func mac(derivedKey, ciphertext []byte) []byte {
	buf := make([]byte, 0, len(derivedKey)+len(ciphertext))
	buf = append(append(buf, derivedKey...), ciphertext...)
	defer keypair.Zero(buf)
	return crypto_util.SHA256(buf)
}
