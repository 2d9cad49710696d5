// Package certificate 签发和验证授权证书。
//
// 证书把子节点的身份、公钥和签名公钥绑定到派生它的父节点。被签名的消息为
//
//	version (1) || scheme (1) || mode (1) || id (8) || len(tag) (2) || tag
//	  || publicKey (33) || signingPublicKey (33)
//
// 整数为大端，公钥为压缩格式。
package certificate

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"

	"arcula/pkg/derivation"
	"arcula/pkg/encode"
	"arcula/pkg/keypair"
)

// Version 是唯一支持的消息格式版本
const Version uint8 = 1

// Signer 代表签发者签名: 内存中的密钥对，或 KMS 中的密钥
type Signer interface {
	PublicKey() *btcec.PublicKey
	Sign(scheme keypair.Scheme, message []byte) ([]byte, error)
}

type Certificate struct {
	Version    uint8
	Scheme     keypair.Scheme
	Mode       derivation.Mode
	ID         uint64
	Tag        string
	SigningKey *btcec.PublicKey
	Signature  []byte
	Message    []byte
}

// Message 构造子节点的规范消息
func Message(scheme keypair.Scheme, mode derivation.Mode, id uint64, tag string,
	pub, signingPub *btcec.PublicKey) ([]byte, error) {

	if pub == nil || signingPub == nil {
		return nil, fmt.Errorf("%w: 公钥为空", ErrMalformedMessage)
	}
	identity, err := encode.Identity(id, tag)
	if err != nil {
		return nil, err
	}

	b := make([]byte, 0, 3+len(identity)+2*keypair.PublicKeyLen)
	b = append(b, Version, byte(scheme), byte(mode))
	b = append(b, identity...)
	b = append(b, pub.SerializeCompressed()...)
	b = append(b, signingPub.SerializeCompressed()...)
	return b, nil
}

// Fields 是解析后的证书消息
type Fields struct {
	Version    uint8
	Scheme     keypair.Scheme
	Mode       derivation.Mode
	ID         uint64
	Tag        string
	PublicKey  *btcec.PublicKey
	SigningKey *btcec.PublicKey
}

// ParseMessage 是 Message 的逆操作
func ParseMessage(b []byte) (*Fields, error) {
	if len(b) < 3 {
		return nil, ErrMalformedMessage
	}
	if b[0] != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, b[0])
	}
	f := &Fields{Version: b[0], Scheme: keypair.Scheme(b[1]), Mode: derivation.Mode(b[2])}

	id, tag, n, err := encode.ReadIdentity(b[3:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	f.ID, f.Tag = id, tag

	rest := b[3+n:]
	if len(rest) != 2*keypair.PublicKeyLen {
		return nil, fmt.Errorf("%w: 需要 %d 字节公钥, 实际 %d", ErrMalformedMessage, 2*keypair.PublicKeyLen, len(rest))
	}
	if f.PublicKey, err = btcec.ParsePubKey(rest[:keypair.PublicKeyLen]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if f.SigningKey, err = btcec.ParsePubKey(rest[keypair.PublicKeyLen:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return f, nil
}

// Issue 用签发者的签名密钥为子节点签发证书
func Issue(issuer Signer, scheme keypair.Scheme, id uint64, tag string, mode derivation.Mode,
	childPub, childSigningPub *btcec.PublicKey) (*Certificate, error) {

	if !scheme.Valid() {
		return nil, fmt.Errorf("不支持的签名方案 %s", scheme)
	}
	if !mode.Valid() {
		return nil, derivation.ErrInvalidMode
	}
	msg, err := Message(scheme, mode, id, tag, childPub, childSigningPub)
	if err != nil {
		return nil, err
	}
	sig, err := issuer.Sign(scheme, msg)
	if err != nil {
		return nil, fmt.Errorf("签发证书失败 (id=%d, tag=%q): %w", id, tag, err)
	}

	return &Certificate{
		Version:    Version,
		Scheme:     scheme,
		Mode:       mode,
		ID:         id,
		Tag:        tag,
		SigningKey: childSigningPub,
		Signature:  sig,
		Message:    msg,
	}, nil
}

// Check 用 claimedPub 和证书中的身份字段重新计算消息，再用 issuerSigningPub 验证签名。
// 返回的错误是 *VerificationError。
func Check(cert *Certificate, claimedPub, issuerSigningPub *btcec.PublicKey) error {
	if cert == nil {
		return &VerificationError{Err: ErrMissingCertificate}
	}
	reject := func(err error) error {
		return &VerificationError{ID: cert.ID, Tag: cert.Tag, Err: err}
	}

	if cert.Version != Version {
		return reject(ErrUnsupportedVersion)
	}
	want, err := Message(cert.Scheme, cert.Mode, cert.ID, cert.Tag, claimedPub, cert.SigningKey)
	if err != nil {
		return reject(err)
	}
	if !bytes.Equal(want, cert.Message) {
		return reject(ErrMessageMismatch)
	}
	if !keypair.Verify(cert.Scheme, issuerSigningPub, cert.Message, cert.Signature) {
		return reject(ErrSignatureInvalid)
	}
	return nil
}

// Verify 是 Check 的布尔形式
func Verify(cert *Certificate, claimedPub, issuerSigningPub *btcec.PublicKey) bool {
	return Check(cert, claimedPub, issuerSigningPub) == nil
}

// Clone 返回深拷贝
func (c *Certificate) Clone() *Certificate {
	if c == nil {
		return nil
	}
	out := *c
	out.Signature = bytes.Clone(c.Signature)
	out.Message = bytes.Clone(c.Message)
	return &out
}

// IsRejected 判断 err 是否来自证书验证失败，而不是其他故障
func IsRejected(err error) bool {
	var verr *VerificationError
	return errors.As(err, &verr)
}
