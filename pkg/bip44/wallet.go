package bip44

import (
	"context"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"

	"arcula/pkg/arcula"
	"arcula/pkg/certificate"
	"arcula/pkg/derivation"
	"arcula/pkg/hdpath"
	"arcula/pkg/hierarchy"
	"arcula/pkg/keypair"
	"arcula/pkg/kms"
)

// Wallet 是已生成密钥的 BIP44 树
type Wallet struct {
	*arcula.Engine
}

// NewWallet 按 cfg 构造模板树并从种子执行 keygen
func NewWallet(ctx context.Context, seed []byte, cfg Config, opts ...arcula.Option) (*Wallet, error) {
	root, err := BuildTree(cfg)
	if err != nil {
		return nil, err
	}
	engine, err := arcula.New(root, opts...)
	if err != nil {
		return nil, err
	}
	if err := engine.Keygen(ctx, seed); err != nil {
		return nil, err
	}
	return &Wallet{Engine: engine}, nil
}

// NormalizePath 把私有分支的别名 XPRIV (不区分大小写) 改写为 XPRV。
// 无法解析的路径原样返回，由查找报告解析错误。
func NormalizePath(path string) string {
	p, err := hdpath.Parse(path)
	if err != nil {
		return path
	}
	for i, seg := range p {
		if strings.EqualFold(seg.Selector, PrivateBranchAlias) {
			p[i].Selector = PrivateBranchTag
		}
	}
	return p.String()
}

// Lookup 先 NormalizePath 再查找
func (w *Wallet) Lookup(path string) (*hierarchy.Node, error) {
	return w.Engine.Lookup(NormalizePath(path))
}

// SigningKeyCertificate 先 NormalizePath 再调用 Engine.SigningKeyCertificate
func (w *Wallet) SigningKeyCertificate(path string) (*keypair.KeyPair, *certificate.Certificate, error) {
	return w.Engine.SigningKeyCertificate(NormalizePath(path))
}

// Delegate 先 NormalizePath 再调用 Engine.Delegate
func (w *Wallet) Delegate(path string, km kms.KeyManager) (*arcula.Delegation, error) {
	return w.Engine.Delegate(NormalizePath(path), km)
}

// EncryptionKey 先 NormalizePath 再调用 Engine.EncryptionKey
func (w *Wallet) EncryptionKey(path string) ([]byte, error) {
	return w.Engine.EncryptionKey(NormalizePath(path))
}

// Recover 对两个路径都先 NormalizePath 再调用 Engine.Recover
func (w *Wallet) Recover(ancestorEnc []byte, ancestorPath, descendantPath string) (*derivation.EdgeMaterial, error) {
	return w.Engine.Recover(ancestorEnc, NormalizePath(ancestorPath), NormalizePath(descendantPath))
}

// Address 返回一个地址的公钥、签名密钥和证书
func (w *Wallet) Address(coin string, account int, public bool, index int) (*btcec.PublicKey, *keypair.KeyPair, *certificate.Certificate, error) {
	node, err := w.Lookup(AddressPath(coin, account, public, index))
	if err != nil {
		return nil, nil, nil, err
	}
	keys, err := node.Keys()
	if err != nil {
		return nil, nil, nil, err
	}
	return keys.PublicKey, keys.Signing, keys.Certificate, nil
}
