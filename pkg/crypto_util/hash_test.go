package crypto_util

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestSHA3_512(t *testing.T) {
	// 与 Python hashlib.sha3_512(b'foo') 对照
	truth, _ := hex.DecodeString(
		"4bca2b137edc580fe50a88983ef860ebaca36c857b1f492839d6d7392452a63c" +
			"82cbebc68e3b70a2a1480b4bb5d437a7cba6ecf9d89f9ff3ccd14cd6146ea7e7")

	got := SHA3_512([]byte("foo"))
	if !bytes.Equal(got, truth) {
		t.Errorf("SHA3_512 不匹配: %x", got)
	}
	if half := SHA3_512Half([]byte("foo")); !bytes.Equal(half, truth[:32]) {
		t.Errorf("SHA3_512Half 不匹配: %x", half)
	}
}

func TestPRF(t *testing.T) {
	k := []byte("test_sha3_512_half_k_k")
	v := []byte("test_sha3_512_half_k_v")

	got := PRF(k, v)
	if len(got) != PRFSize {
		t.Fatalf("PRF 长度 = %d, 期望 %d", len(got), PRFSize)
	}
	if !bytes.Equal(got, SHA3_512Half(append(append([]byte{}, k...), v...))) {
		t.Error("PRF(k, m) 应该等于 SHA3_512Half(k || m)")
	}
	if bytes.Equal(PRF(k, v), PRF(v, k)) {
		t.Error("交换 key 和 message 不应得到相同输出")
	}
}

func TestHashes(t *testing.T) {
	input := []byte("hello world")

	if len(SHA256(input)) != 32 {
		t.Errorf("SHA256 长度不匹配")
	}

	blake := Blake3Hex(input)
	if len(blake) != 64 {
		t.Errorf("Blake3 哈希长度不匹配: 得到 %d, 期望 64", len(blake))
	}
	if Blake3Hex([]byte("hello "), []byte("world")) != blake {
		t.Error("分段写入应与整体哈希一致")
	}
	t.Logf("Blake3: %s", blake)
}
