package arcula

import (
	"fmt"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"go.uber.org/zap"

	"arcula/pkg/certificate"
	"arcula/pkg/derivation"
	"arcula/pkg/hierarchy"
	"arcula/pkg/keypair"
	"arcula/pkg/kms"
	"arcula/pkg/monitor"
)

// Delegation 把一个节点的签名权交给 KMS 中的密钥。
// 持有 Delegation 的组件可以为该节点签发新的 non-hardened 子节点，
// 但看不到任何支出秘密，也无法为兄弟或祖先节点签发证书。
type Delegation struct {
	node      *hierarchy.Node
	path      string
	publicKey *btcec.PublicKey
	chain     []certificate.Link
	rootPub   *btcec.PublicKey
	scheme    keypair.Scheme
	km        kms.KeyManager
	signer    *kms.Signer

	log     *zap.Logger
	metrics *monitor.Metrics

	mu     sync.Mutex
	issued map[identity]struct{}
}

// identity 是子节点的 (id, tag)，tag 统一小写，与路径匹配一致
type identity struct {
	id  uint64
	tag string
}

// Issued 是通过委托签发的子节点
type Issued struct {
	ID           uint64
	Tag          string
	PublicKey    *btcec.PublicKey
	SigningKeyID string
	Certificate  *certificate.Certificate

	chain []certificate.Link
}

// Chain 返回从根到该子节点的完整证书链
func (i *Issued) Chain() []certificate.Link {
	return i.chain
}

// Delegate 把 path 对应节点的签名密钥导入 km，返回可独立使用的 Delegation。
func (e *Engine) Delegate(path string, km kms.KeyManager) (*Delegation, error) {
	node, err := e.Lookup(path)
	if err != nil {
		return nil, err
	}
	rootPub, chain, err := e.chain(node)
	if err != nil {
		return nil, err
	}
	keys, err := node.Keys()
	if err != nil {
		return nil, err
	}

	keyID, err := km.ImportKey(keys.Signing)
	if err != nil {
		return nil, fmt.Errorf("导入 %s 的签名密钥失败: %w", node.Path(), err)
	}
	signer, err := kms.NewSigner(km, keyID)
	if err != nil {
		return nil, err
	}

	e.log.Info("signing key delegated",
		zap.String("path", node.Path()),
		zap.String("key_id", keyID),
		zap.String("fingerprint", keys.Signing.Fingerprint()))

	return &Delegation{
		node:      node,
		path:      node.Path(),
		publicKey: keys.PublicKey,
		chain:     chain,
		rootPub:   rootPub,
		scheme:    e.scheme,
		km:        km,
		signer:    signer,
		log:       e.log,
		metrics:   e.metrics,
		issued:    make(map[identity]struct{}),
	}, nil
}

func (d *Delegation) Path() string                { return d.path }
func (d *Delegation) KeyID() string               { return d.signer.KeyID() }
func (d *Delegation) PublicKey() *btcec.PublicKey { return d.publicKey }

// Chain 返回从根到被委托节点的证书链 (根节点为空)
func (d *Delegation) Chain() []certificate.Link {
	return d.chain
}

// Issue 派生一个观察子节点并用委托的签名密钥为其签发证书。
// 子节点的签名密钥在 KMS 中新建，不是确定性派生的。
// (id, tag) 与树中已有的子边或之前签发过的子节点重复时返回 DuplicateEdgeError，
// 同一身份不会有两张签名密钥不同的有效证书。
func (d *Delegation) Issue(id uint64, tag string) (*Issued, error) {
	if err := d.reserve(id, tag); err != nil {
		return nil, err
	}
	issued, err := d.issue(id, tag)
	if err != nil {
		d.release(id, tag)
		return nil, err
	}
	return issued, nil
}

func (d *Delegation) reserve(id uint64, tag string) error {
	dup := &hierarchy.DuplicateEdgeError{Parent: d.path, ID: id, Tag: tag}
	candidate := hierarchy.New(id, tag, derivation.NonHardened)
	for _, e := range d.node.Edges() {
		if hierarchy.SameIdentity(e, candidate) {
			return dup
		}
	}

	key := identity{id, strings.ToLower(tag)}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.issued[key]; ok {
		return dup
	}
	d.issued[key] = struct{}{}
	return nil
}

func (d *Delegation) release(id uint64, tag string) {
	d.mu.Lock()
	delete(d.issued, identity{id, strings.ToLower(tag)})
	d.mu.Unlock()
}

func (d *Delegation) issue(id uint64, tag string) (*Issued, error) {
	child, err := derivation.Derive(derivation.PublicMaterial{Key: d.publicKey}, id, tag, derivation.NonHardened)
	if err != nil {
		return nil, err
	}

	signingID, err := d.km.CreateKey(kms.KeyTypeSecp256k1)
	if err != nil {
		return nil, fmt.Errorf("创建子节点签名密钥失败: %w", err)
	}
	signingPub, err := d.km.GetPublicKey(signingID)
	if err != nil {
		return nil, err
	}

	cert, err := certificate.Issue(d.signer, d.scheme, id, tag, derivation.NonHardened, child.Public, signingPub)
	if err != nil {
		_ = d.km.DeleteKey(signingID)
		return nil, err
	}

	chain := make([]certificate.Link, len(d.chain), len(d.chain)+1)
	copy(chain, d.chain)
	chain = append(chain, certificate.Link{PublicKey: child.Public, Certificate: cert})

	d.metrics.Delegated()
	d.log.Debug("delegated child issued",
		zap.String("parent", d.path),
		zap.Uint64("id", id),
		zap.String("tag", tag),
		zap.String("fingerprint", keypair.Fingerprint(child.Public)))

	return &Issued{
		ID:           id,
		Tag:          tag,
		PublicKey:    child.Public,
		SigningKeyID: signingID,
		Certificate:  cert,
		chain:        chain,
	}, nil
}

// Verify 检查 issued 的证书链能否验证到根公钥
func (d *Delegation) Verify(issued *Issued) error {
	return certificate.VerifyChain(issued.chain, d.rootPub)
}

// Revoke 从 KMS 中删除委托的签名密钥
func (d *Delegation) Revoke() error {
	return d.km.DeleteKey(d.signer.KeyID())
}
