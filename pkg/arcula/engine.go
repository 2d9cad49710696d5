// Package arcula 把派生函数和证书协议组合成对整棵密钥树的 keygen。
//
// Engine 以先父后子的顺序遍历树: 根节点从种子派生，每个子节点从父节点
// 材料派生支出密钥和签名密钥，并由父节点的签名密钥签发证书。
// 根公钥 (冷存储公钥) 是验证所有证书链的唯一信任锚。
package arcula

import (
	"errors"
	"runtime"
	"time"

	"go.uber.org/zap"

	"arcula/pkg/cache"
	"arcula/pkg/certificate"
	"arcula/pkg/hierarchy"
	"arcula/pkg/keypair"
	"arcula/pkg/monitor"
)

const defaultVerifyCacheTTL = 10 * time.Minute

var ErrNilRoot = errors.New("根节点为空")

type Engine struct {
	root      *hierarchy.Node
	scheme    keypair.Scheme
	traversal hierarchy.Order
	workers   int

	log      *zap.Logger
	metrics  *monitor.Metrics
	verifier *certificate.ChainVerifier
}

type Option func(*Engine)

// WithScheme 设置证书签名方案，默认 ECDSA
func WithScheme(s keypair.Scheme) Option {
	return func(e *Engine) { e.scheme = s }
}

// WithTraversal 设置遍历顺序，两种顺序的结果完全相同
func WithTraversal(o hierarchy.Order) Option {
	return func(e *Engine) { e.traversal = o }
}

// WithWorkers 限制广度优先遍历时每层的并发数
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithMetrics(m *monitor.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithVerifyCache 设置 VerifyAll 使用的缓存
func WithVerifyCache(c cache.Cache, ttl time.Duration) Option {
	return func(e *Engine) {
		if c != nil {
			e.verifier = certificate.NewChainVerifier(c, ttl)
		}
	}
}

// New 创建 Engine。root 此时只需要有结构，Keygen 会写入密钥。
func New(root *hierarchy.Node, opts ...Option) (*Engine, error) {
	if root == nil {
		return nil, ErrNilRoot
	}
	e := &Engine{
		root:      root,
		scheme:    keypair.SchemeECDSA,
		traversal: hierarchy.DepthFirst,
		workers:   runtime.GOMAXPROCS(0),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if !e.scheme.Valid() {
		return nil, errors.New("未知的签名方案: " + e.scheme.String())
	}
	if e.verifier == nil {
		ttl := defaultVerifyCacheTTL
		e.verifier = certificate.NewChainVerifier(cache.NewMemoryCache(ttl, 2*ttl), ttl)
	}
	e.verifier.Observe = e.metrics.Verification
	e.log = e.log.With(zap.String("scheme", e.scheme.String()))
	return e, nil
}

// Root 返回引擎管理的树根
func (e *Engine) Root() *hierarchy.Node {
	return e.root
}

func (e *Engine) Scheme() keypair.Scheme {
	return e.scheme
}
