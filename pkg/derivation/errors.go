package derivation

import (
	"errors"
	"fmt"

	"arcula/pkg/errno"
)

var (
	// ErrInvalidChild 表示派生结果落在无效标量或无穷远点上 (概率约 2^-128)
	ErrInvalidChild = errors.New("派生得到无效的子密钥")
	ErrInvalidMode  = errors.New("未知的派生模式")
	ErrNilParent    = errors.New("父节点材料为空")
	ErrEdgePayload  = errors.New("加密边的内容格式错误")
	ErrEdgeMismatch = errors.New("加密边解出的密钥与节点公钥不一致")
)

// MissingSecretError 表示在只有公钥的情况下尝试 Hardened 派生。
type MissingSecretError struct {
	ID  uint64
	Tag string
}

func (e *MissingSecretError) Error() string {
	return fmt.Sprintf("hardened 派生 (id=%d, tag=%q) 需要父节点秘密", e.ID, e.Tag)
}

func (e *MissingSecretError) Unwrap() error {
	return errno.ErrMissingSecret
}
