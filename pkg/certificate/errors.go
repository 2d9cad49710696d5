package certificate

import (
	"errors"
	"fmt"

	"arcula/pkg/errno"
)

var (
	ErrMessageMismatch    = errors.New("消息与声明的身份和公钥不一致")
	ErrSignatureInvalid   = errors.New("签名无效")
	ErrMissingCertificate = errors.New("缺少证书")
	ErrUnsupportedVersion = errors.New("不支持的证书版本")
	ErrMalformedMessage   = errors.New("证书消息格式错误")
	ErrEmptyChain         = errors.New("证书链为空")
)

// VerificationError 指出链中被拒绝的一环，深度 1 是根的下一级
type VerificationError struct {
	Depth int
	ID    uint64
	Tag   string
	Err   error
}

func (e *VerificationError) Error() string {
	if e.Depth == 0 {
		return fmt.Sprintf("证书被拒绝 (id=%d, tag=%q): %v", e.ID, e.Tag, e.Err)
	}
	return fmt.Sprintf("第 %d 层证书被拒绝 (id=%d, tag=%q): %v", e.Depth, e.ID, e.Tag, e.Err)
}

func (e *VerificationError) Unwrap() []error {
	return []error{e.Err, errno.ErrCertificateRejected}
}
