package arcula

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"

	"arcula/pkg/certificate"
	"arcula/pkg/hierarchy"
	"arcula/pkg/keypair"
)

var ErrForeignNode = errors.New("节点不属于该引擎管理的树")

// ColdStoragePublicKey 返回根公钥，即所有证书链的信任锚
func (e *Engine) ColdStoragePublicKey() (*btcec.PublicKey, error) {
	return e.root.PublicKey()
}

// Lookup 按路径查找节点
func (e *Engine) Lookup(path string) (*hierarchy.Node, error) {
	return e.root.Lookup(path)
}

// SigningKeyCertificate 返回路径对应节点的签名密钥对和证书副本。根节点的证书为 nil。
func (e *Engine) SigningKeyCertificate(path string) (*keypair.KeyPair, *certificate.Certificate, error) {
	node, err := e.Lookup(path)
	if err != nil {
		return nil, nil, err
	}
	keys, err := node.Keys()
	if err != nil {
		return nil, nil, err
	}
	return keys.Signing, keys.Certificate, nil
}

// VerifyChain 验证从根到 node 的证书链。
// 证书无效时返回 *certificate.VerificationError，其他错误表示树本身的问题。
func (e *Engine) VerifyChain(node *hierarchy.Node) error {
	rootPub, chain, err := e.chain(node)
	if err != nil {
		return err
	}
	if chain == nil {
		return nil
	}
	return certificate.VerifyChain(chain, rootPub)
}

// Verified 是 VerifyChain 的布尔形式
func (e *Engine) Verified(node *hierarchy.Node) bool {
	return e.VerifyChain(node) == nil
}

func (e *Engine) chain(node *hierarchy.Node) (*btcec.PublicKey, []certificate.Link, error) {
	if node == nil {
		return nil, nil, hierarchy.ErrNilNode
	}
	if node.Root() != e.root {
		return nil, nil, ErrForeignNode
	}
	rootPub, err := e.ColdStoragePublicKey()
	if err != nil {
		return nil, nil, err
	}
	if node.IsRoot() {
		return rootPub, nil, nil
	}
	chain, err := node.Chain()
	if err != nil {
		return nil, nil, err
	}
	return rootPub, chain, nil
}

// VerifyAll 验证树中每个节点的证书链，共享前缀的链接只验证一次。
// 返回验证通过的节点数，以及所有失败节点的错误。
func (e *Engine) VerifyAll(ctx context.Context) (int, error) {
	var (
		ok   int
		errs []error
	)
	err := hierarchy.Walk(e.root, hierarchy.BreadthFirst, func(n *hierarchy.Node) error {
		rootPub, chain, err := e.chain(n)
		if err == nil && chain != nil {
			err = e.verifier.VerifyChain(ctx, chain, rootPub)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Path(), err))
			return nil
		}
		ok++
		return nil
	})
	if err != nil {
		return ok, err
	}
	return ok, errors.Join(errs...)
}

// Wipe 销毁树中所有秘密，公钥和证书仍然可读
func (e *Engine) Wipe() {
	e.root.Wipe()
	e.log.Info("secrets wiped")
}
