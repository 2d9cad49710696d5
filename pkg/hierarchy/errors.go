package hierarchy

import (
	"errors"
	"fmt"

	"arcula/pkg/errno"
)

var (
	ErrNilNode         = errors.New("节点为空")
	ErrAlreadyParented = errors.New("节点已经挂在其他父节点下")
	ErrCycle           = errors.New("添加该边会形成环")
	ErrIncompleteKeys  = errors.New("密钥材料不完整")
)

// DuplicateEdgeError 表示同一父节点下出现了重复的 (id, tag)
type DuplicateEdgeError struct {
	Parent string
	ID     uint64
	Tag    string
}

func (e *DuplicateEdgeError) Error() string {
	return fmt.Sprintf("%s 下已存在边 (id=%d, tag=%q)", e.Parent, e.ID, e.Tag)
}

func (e *DuplicateEdgeError) Unwrap() error { return errno.ErrDuplicateEdge }

// KeyNotYetGeneratedError 表示在 keygen 之前读取了密钥材料
type KeyNotYetGeneratedError struct {
	Path string
}

func (e *KeyNotYetGeneratedError) Error() string {
	return fmt.Sprintf("%s 尚未生成密钥", e.Path)
}

func (e *KeyNotYetGeneratedError) Unwrap() error { return errno.ErrKeyNotYetGenerated }

// PathNotFoundError 表示路径中的某一段无法唯一匹配到边
type PathNotFoundError struct {
	Path    string
	Segment string
	Reason  string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("路径 %s 在段 %q 处无法解析: %s", e.Path, e.Segment, e.Reason)
}

func (e *PathNotFoundError) Unwrap() error { return errno.ErrPathNotFound }

func alreadyKeyed(path string) error {
	return fmt.Errorf("%w: %s", errno.ErrAlreadyKeyed, path)
}
