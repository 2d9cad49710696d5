package crypto_util

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
)

// PRFSize 是 PRF 输出的字节数 (256 bits)。
const PRFSize = 32

// SHA3_512 计算输入的 SHA3-512 摘要。
func SHA3_512(parts ...[]byte) []byte {
	h := sha3.New512()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// SHA3_512Half 返回 SHA3-512 摘要的前半部分 (32 字节)。
func SHA3_512Half(parts ...[]byte) []byte {
	return SHA3_512(parts...)[:PRFSize]
}

// PRF 把 SHA3-512 当作以 key 为密钥的伪随机函数使用: PRF(k, m) = SHA3-512(k || m)[:32]。
// SHA3 没有长度扩展问题，所以直接拼接即可。
func PRF(key, message []byte) []byte {
	return SHA3_512Half(key, message)
}

// SHA256 计算输入的 SHA256 摘要。
func SHA256(data []byte) []byte {
	hash := sha256.Sum256(data)
	return hash[:]
}

// Blake3 计算输入的 Blake3-256 摘要。
func Blake3(parts ...[]byte) []byte {
	h := blake3.New(32, nil)
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// Blake3Hex 返回 Blake3-256 摘要的 Hex 编码，用作缓存键等标识符。
func Blake3Hex(parts ...[]byte) string {
	return hex.EncodeToString(Blake3(parts...))
}
