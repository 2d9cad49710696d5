package arcula

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"arcula/pkg/certificate"
	"arcula/pkg/derivation"
	"arcula/pkg/errno"
	"arcula/pkg/hierarchy"
	"arcula/pkg/keypair"
)

// Keygen 从 seed 为整棵树生成密钥和证书。
//
// 派生开始前先检查整棵树的结构: 重复边、观察节点之下的 hardened 边、
// 已经生成过密钥的节点，任何一项不满足都不会写入任何密钥。
// ctx 取消时停止派生，已写入的节点保持完整。
func (e *Engine) Keygen(ctx context.Context, seed []byte) error {
	start := time.Now()
	if len(seed) == 0 {
		return fmt.Errorf("%w: 种子为空", errno.ErrInvalidSeed)
	}
	if err := e.validate(); err != nil {
		return err
	}

	rm, err := derivation.Root(seed, e.root.ID(), e.root.Tag())
	if err != nil {
		return fmt.Errorf("%w: %v", errno.ErrInvalidSeed, err)
	}
	if err := e.root.SetKeys(&hierarchy.Keys{Spend: rm.Key.Pair, PublicKey: rm.Key.Public, Signing: rm.Signing, Encryption: rm.Encryption}); err != nil {
		rm.Destroy()
		return err
	}

	log := e.log.With(zap.String("root", keypair.Fingerprint(rm.Key.Public)), zap.Stringer("traversal", e.traversal))
	log.Info("keygen started")

	if e.traversal == hierarchy.BreadthFirst {
		err = e.keygenBreadth(ctx, log)
	} else {
		err = e.keygenDepth(ctx)
	}
	if err != nil {
		log.Warn("keygen aborted", zap.Error(err))
		return err
	}

	e.metrics.ObserveKeygen(e.traversal.String(), start)
	log.Info("keygen finished",
		zap.Int("nodes", hierarchy.Count(e.root)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// KeygenSecret 与 Keygen 相同，种子以 Secret 形式传入
func (e *Engine) KeygenSecret(ctx context.Context, seed *keypair.Secret) error {
	return seed.WithBytes(func(b []byte) error {
		return e.Keygen(ctx, b)
	})
}

// validate 在派生前检查整棵树
func (e *Engine) validate() error {
	return e.validateNode(e.root, false)
}

func (e *Engine) validateNode(n *hierarchy.Node, watchOnly bool) error {
	if n.Keyed() {
		return fmt.Errorf("%w: %s", errno.ErrAlreadyKeyed, n.Path())
	}

	edges := n.Edges()
	for i, child := range edges {
		for _, prev := range edges[:i] {
			if hierarchy.SameIdentity(prev, child) {
				return &hierarchy.DuplicateEdgeError{Parent: n.Path(), ID: child.ID(), Tag: child.Tag()}
			}
		}

		switch child.Mode() {
		case derivation.Hardened:
			if watchOnly {
				return fmt.Errorf("%s: %w", child.Path(), &derivation.MissingSecretError{ID: child.ID(), Tag: child.Tag()})
			}
		case derivation.NonHardened:
		default:
			return fmt.Errorf("%s: %w", child.Path(), derivation.ErrInvalidMode)
		}

		if err := e.validateNode(child, watchOnly || child.Mode() == derivation.NonHardened); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) keygenDepth(ctx context.Context) error {
	return hierarchy.Walk(e.root, hierarchy.DepthFirst, func(n *hierarchy.Node) error {
		if n.IsRoot() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return e.keyNode(n)
	})
}

// keygenBreadth 逐层派生，同一层的节点只读取已完成的上一层，可以并行
func (e *Engine) keygenBreadth(ctx context.Context, log *zap.Logger) error {
	levels := hierarchy.Levels(e.root)
	for depth, level := range levels[1:] {
		if err := ctx.Err(); err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.workers)
		for _, n := range level {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return e.keyNode(n)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		log.Debug("level derived", zap.Int("depth", depth+1), zap.Int("nodes", len(level)))
	}
	return nil
}

// keyNode 派生单个非根节点的密钥，由父节点签发证书并生成加密边
func (e *Engine) keyNode(n *hierarchy.Node) error {
	parent, err := n.Parent().Keys()
	if err != nil {
		return err
	}
	defer keypair.Zero(parent.Encryption)

	m, err := derivation.Child(parent.Material(), n.ID(), n.Tag(), n.Mode())
	if err != nil {
		return fmt.Errorf("派生 %s 失败: %w", n.Path(), err)
	}
	cert, err := certificate.Issue(parent.Signing, e.scheme, n.ID(), n.Tag(), n.Mode(),
		m.Key.Public, m.Signing.PublicKey())
	if err != nil {
		m.Destroy()
		return fmt.Errorf("签发 %s 的证书失败: %w", n.Path(), err)
	}
	sealed, err := derivation.SealEdge(parent.Encryption, n.ID(), n.Tag(), m)
	if err != nil {
		m.Destroy()
		return fmt.Errorf("加密 %s 的边失败: %w", n.Path(), err)
	}

	if err := n.SetKeys(&hierarchy.Keys{
		Spend:         m.Key.Pair,
		PublicKey:     m.Key.Public,
		Signing:       m.Signing,
		Certificate:   cert,
		Encryption:    m.Encryption,
		EncryptedEdge: sealed,
	}); err != nil {
		m.Destroy()
		return err
	}

	e.metrics.NodeDerived(n.Mode().String())
	e.metrics.CertificateIssued(e.scheme.String())
	return nil
}
