package arcula

import (
	"bytes"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"arcula/pkg/derivation"
	"arcula/pkg/hierarchy"
	"arcula/pkg/keypair"
)

var (
	ErrNotDescendant   = errors.New("目标节点不在祖先节点的子树中")
	ErrNoEncryptionKey = errors.New("节点的加密密钥已被销毁")
)

// EncryptionKey 返回路径对应节点加密密钥的副本
func (e *Engine) EncryptionKey(path string) ([]byte, error) {
	node, err := e.Lookup(path)
	if err != nil {
		return nil, err
	}
	keys, err := node.Keys()
	if err != nil {
		return nil, err
	}
	if len(keys.Encryption) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoEncryptionKey, node.Path())
	}
	return keys.Encryption, nil
}

// Recover 用祖先节点的加密密钥逐条解开加密边，恢复子孙节点的加密密钥和支出秘密。
// 只依赖树中保存的加密边，Wipe 之后同样可用。
func (e *Engine) Recover(ancestorEnc []byte, ancestorPath, descendantPath string) (*derivation.EdgeMaterial, error) {
	ancestor, err := e.Lookup(ancestorPath)
	if err != nil {
		return nil, err
	}
	target, err := e.Lookup(descendantPath)
	if err != nil {
		return nil, err
	}

	var path []*hierarchy.Node
	for cur := target; cur != ancestor; cur = cur.Parent() {
		if cur.IsRoot() {
			return nil, fmt.Errorf("%w: %s 不在 %s 之下", ErrNotDescendant, target.Path(), ancestor.Path())
		}
		path = append(path, cur)
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotDescendant, target.Path())
	}

	enc := bytes.Clone(ancestorEnc)
	var opened *derivation.EdgeMaterial
	for i := len(path) - 1; i >= 0; i-- {
		n := path[i]
		keys, err := n.Keys()
		if err != nil {
			keypair.Zero(enc)
			return nil, err
		}
		opened, err = derivation.OpenEdge(enc, n.ID(), n.Tag(), keys.EncryptedEdge)
		keypair.Zero(enc)
		if err != nil {
			return nil, fmt.Errorf("解开 %s 的加密边失败: %w", n.Path(), err)
		}
		if (opened.Spend == nil) != keys.WatchOnly() ||
			(opened.Spend != nil && !opened.Spend.PublicKey().IsEqual(keys.PublicKey)) {
			opened.Destroy()
			return nil, fmt.Errorf("%s: %w", n.Path(), derivation.ErrEdgeMismatch)
		}
		if i > 0 {
			enc = opened.Encryption
			opened.Spend.Destroy()
		}
	}

	e.log.Debug("descendant recovered",
		zap.String("ancestor", ancestor.Path()),
		zap.String("descendant", target.Path()),
		zap.Int("edges", len(path)))
	return opened, nil
}
