// Package encode 定义密钥派生和证书共用的字节级编码，整数一律大端。
package encode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// IDLen 是节点 id 编码后的长度
	IDLen = 8

	// TagLenPrefix 是标签长度前缀的宽度
	TagLenPrefix = 2

	// MaxTagLen 是长度前缀能表示的最长标签
	MaxTagLen = math.MaxUint16
)

var (
	ErrTagTooLong = fmt.Errorf("标签超过 %d 字节", MaxTagLen)
	ErrShortInput = errors.New("输入长度不足")
)

// Uint64 把 k 编码为 8 字节大端
func Uint64(k uint64) []byte {
	var b [IDLen]byte
	binary.BigEndian.PutUint64(b[:], k)
	return b[:]
}

// ReadUint64 解析 8 字节大端整数
func ReadUint64(b []byte) (uint64, error) {
	if len(b) < IDLen {
		return 0, ErrShortInput
	}
	return binary.BigEndian.Uint64(b[:IDLen]), nil
}

// Tag 把标签编码为 2 字节长度加 UTF-8 字节，不同的 (id, tag) 不会得到相同编码
func Tag(tag string) ([]byte, error) {
	if len(tag) > MaxTagLen {
		return nil, ErrTagTooLong
	}
	b := make([]byte, TagLenPrefix+len(tag))
	binary.BigEndian.PutUint16(b, uint16(len(tag)))
	copy(b[TagLenPrefix:], tag)
	return b, nil
}

// ReadTag 解析带长度前缀的标签，同时返回消耗的字节数
func ReadTag(b []byte) (string, int, error) {
	if len(b) < TagLenPrefix {
		return "", 0, ErrShortInput
	}
	n := int(binary.BigEndian.Uint16(b))
	if len(b) < TagLenPrefix+n {
		return "", 0, ErrShortInput
	}
	return string(b[TagLenPrefix : TagLenPrefix+n]), TagLenPrefix + n, nil
}

// Identity 是节点 (id, tag) 的规范编码:
//
//	id (8 bytes) || len(tag) (2 bytes) || tag
func Identity(id uint64, tag string) ([]byte, error) {
	t, err := Tag(tag)
	if err != nil {
		return nil, err
	}
	return append(Uint64(id), t...), nil
}

// ReadIdentity 是 Identity 的逆操作
func ReadIdentity(b []byte) (uint64, string, int, error) {
	id, err := ReadUint64(b)
	if err != nil {
		return 0, "", 0, err
	}
	tag, n, err := ReadTag(b[IDLen:])
	if err != nil {
		return 0, "", 0, err
	}
	return id, tag, IDLen + n, nil
}

// Labeled 在身份编码前加一字节域分隔标签
func Labeled(label byte, identity []byte) []byte {
	b := make([]byte, 0, 1+len(identity))
	b = append(b, label)
	return append(b, identity...)
}
