// Package hierarchy 定义密钥树的节点。
//
// 节点在 keygen 之前只有结构 (id、tag、模式、子边)，keygen 之后一次性
// 写入密钥材料。子节点由父节点独占，parent 只是非拥有的反向引用。
package hierarchy

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"

	"arcula/pkg/certificate"
	"arcula/pkg/derivation"
	"arcula/pkg/keypair"
)

// Keys 是节点 keygen 之后的密钥状态
type Keys struct {
	// Spend 为 nil 表示观察节点 (路径上存在 non-hardened 边)
	Spend       *keypair.KeyPair
	PublicKey   *btcec.PublicKey
	Signing     *keypair.KeyPair
	Certificate *certificate.Certificate
	// Encryption 是节点加密密钥，持有它就能解开所有子孙的加密边
	Encryption []byte
	// EncryptedEdge 是父节点到本节点的加密边，根节点为 nil
	EncryptedEdge []byte
}

// Secret 返回支出秘密，观察节点返回 nil
func (k *Keys) Secret() *keypair.Secret {
	if k.Spend == nil {
		return nil
	}
	return k.Spend.Secret()
}

// WatchOnly 返回节点是否不持有支出秘密
func (k *Keys) WatchOnly() bool {
	return k.Spend == nil
}

// Material 返回派生子节点所需的材料
func (k *Keys) Material() *derivation.Material {
	return &derivation.Material{
		Key:        &derivation.ChildKey{Pair: k.Spend, Public: k.PublicKey},
		Signing:    k.Signing,
		Encryption: k.Encryption,
	}
}

type Node struct {
	id   uint64
	tag  string
	mode derivation.Mode

	edges  []*Node
	parent *Node

	mu   sync.RWMutex
	keys *Keys
}

// New 创建一个只有结构的节点
func New(id uint64, tag string, mode derivation.Mode) *Node {
	return &Node{id: id, tag: tag, mode: mode}
}

// NewRoot 创建根节点 (id 为 0)
func NewRoot(tag string) *Node {
	return New(0, tag, derivation.Hardened)
}

func (n *Node) ID() uint64            { return n.id }
func (n *Node) Tag() string           { return n.tag }
func (n *Node) Mode() derivation.Mode { return n.mode }
func (n *Node) Parent() *Node         { return n.parent }
func (n *Node) IsRoot() bool          { return n.parent == nil }

// Edges 返回子节点的副本
func (n *Node) Edges() []*Node {
	out := make([]*Node, len(n.edges))
	copy(out, n.edges)
	return out
}

// Root 返回节点所在树的根
func (n *Node) Root() *Node {
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// Depth 返回节点到根的边数
func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// AddEdge 把 child 挂到 n 下。
// (id, tag) 重复 (tag 不区分大小写，与路径匹配一致)、child 已有父节点、
// n 已经生成密钥时返回错误。
func (n *Node) AddEdge(child *Node) error {
	if n == nil || child == nil {
		return ErrNilNode
	}
	if !child.mode.Valid() {
		return fmt.Errorf("%w: %s", derivation.ErrInvalidMode, child.mode)
	}
	if child.parent != nil {
		return ErrAlreadyParented
	}
	if child == n.Root() {
		return ErrCycle
	}
	if n.Keyed() {
		return alreadyKeyed(n.Path())
	}
	for _, e := range n.edges {
		if SameIdentity(e, child) {
			return &DuplicateEdgeError{Parent: n.Path(), ID: child.id, Tag: child.tag}
		}
	}

	child.parent = n
	n.edges = append(n.edges, child)
	return nil
}

// SameIdentity 判断两个节点的 (id, tag) 是否相同，tag 不区分大小写
func SameIdentity(a, b *Node) bool {
	return a.id == b.id && strings.EqualFold(a.tag, b.tag)
}

// Add 创建子节点并挂到 n 下
func (n *Node) Add(id uint64, tag string, mode derivation.Mode) (*Node, error) {
	child := New(id, tag, mode)
	if err := n.AddEdge(child); err != nil {
		return nil, err
	}
	return child, nil
}

// Keyed 返回节点是否已生成密钥
func (n *Node) Keyed() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.keys != nil
}

// Keys 返回节点密钥材料的副本 (证书和字节切片深拷贝)，修改返回值不影响节点。
// keygen 之前返回 KeyNotYetGeneratedError。
func (n *Node) Keys() (*Keys, error) {
	n.mu.RLock()
	keys := n.keys
	n.mu.RUnlock()

	if keys == nil {
		return nil, &KeyNotYetGeneratedError{Path: n.Path()}
	}
	cp := *keys
	cp.Certificate = keys.Certificate.Clone()
	cp.Encryption = bytes.Clone(keys.Encryption)
	cp.EncryptedEdge = bytes.Clone(keys.EncryptedEdge)
	return &cp, nil
}

// PublicKey 是 Keys 的便捷形式
func (n *Node) PublicKey() (*btcec.PublicKey, error) {
	keys, err := n.Keys()
	if err != nil {
		return nil, err
	}
	return keys.PublicKey, nil
}

// SetKeys 写入密钥材料，只能写入一次
func (n *Node) SetKeys(keys *Keys) error {
	if keys == nil || keys.PublicKey == nil || keys.Signing == nil {
		return ErrIncompleteKeys
	}
	if !n.IsRoot() && keys.Certificate == nil {
		return fmt.Errorf("%w: 非根节点缺少证书", ErrIncompleteKeys)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.keys != nil {
		return alreadyKeyed(n.Path())
	}
	n.keys = keys
	return nil
}

// Wipe 销毁子树中所有秘密和加密密钥，公钥、证书和加密边保留
func (n *Node) Wipe() {
	_ = Walk(n, DepthFirst, func(node *Node) error {
		node.mu.RLock()
		keys := node.keys
		node.mu.RUnlock()
		if keys != nil {
			keys.Spend.Destroy()
			keys.Signing.Destroy()
			node.mu.Lock()
			keypair.Zero(keys.Encryption)
			keys.Encryption = nil
			node.mu.Unlock()
		}
		return nil
	})
}

// EncryptedEdges 按边的顺序返回 n 到每个子节点的加密边
func (n *Node) EncryptedEdges() ([][]byte, error) {
	out := make([][]byte, 0, len(n.edges))
	for _, child := range n.edges {
		keys, err := child.Keys()
		if err != nil {
			return nil, err
		}
		out = append(out, keys.EncryptedEdge)
	}
	return out, nil
}

// Chain 返回从根的下一级到 n 的证书链
func (n *Node) Chain() ([]certificate.Link, error) {
	var chain []certificate.Link
	for cur := n; !cur.IsRoot(); cur = cur.parent {
		keys, err := cur.Keys()
		if err != nil {
			return nil, err
		}
		chain = append(chain, certificate.Link{PublicKey: keys.PublicKey, Certificate: keys.Certificate})
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// Selector 返回父节点下能唯一选中 n 的路径段文本: 优先使用标签，否则使用 id
func (n *Node) Selector() string {
	if n.parent == nil {
		return rootSelector
	}
	id := strconv.FormatUint(n.id, 10)
	for _, sel := range []string{n.tag, id} {
		if sel == "" {
			continue
		}
		if matches := n.parent.match(sel); len(matches) == 1 && matches[0] == n {
			return sel
		}
	}
	return id
}

// Path 返回节点的路径，例如 m/44'/BTC'/0'/XPUB/3
func (n *Node) Path() string {
	if n.parent == nil {
		return rootSelector
	}
	return n.parent.Path() + "/" + n.Selector() + n.mode.Marker()
}

func (n *Node) String() string {
	return n.Path()
}
