package certificate

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"

	"arcula/pkg/cache"
	"arcula/pkg/crypto_util"
	"arcula/pkg/encode"
)

// Link 是证书链中的一环: 节点公钥和父节点为它签发的证书
type Link struct {
	PublicKey   *btcec.PublicKey
	Certificate *Certificate
}

// VerifyChain 从根的下一级开始向下验证到目标节点。
// 第一环用 rootPub 验证，之后每一环用上一环证书中的签名公钥验证。
// 任何一环缺失或无效，整条链都失败。
func VerifyChain(chain []Link, rootPub *btcec.PublicKey) error {
	return verifyChain(chain, rootPub, nil)
}

// ChainValid 是 VerifyChain 的布尔形式
func ChainValid(chain []Link, rootPub *btcec.PublicKey) bool {
	return VerifyChain(chain, rootPub) == nil
}

func verifyChain(chain []Link, rootPub *btcec.PublicKey, check func(int, Link, *btcec.PublicKey) error) error {
	if len(chain) == 0 {
		return &VerificationError{Err: ErrEmptyChain}
	}
	if check == nil {
		check = checkLink
	}

	issuer := rootPub
	for i, link := range chain {
		if err := check(i+1, link, issuer); err != nil {
			return err
		}
		issuer = link.Certificate.SigningKey
	}
	return nil
}

func checkLink(depth int, link Link, issuer *btcec.PublicKey) error {
	if err := Check(link.Certificate, link.PublicKey, issuer); err != nil {
		verr := err.(*VerificationError)
		verr.Depth = depth
		return verr
	}
	return nil
}

// ChainVerifier 缓存已经验证通过的链接，共享前缀的链每一环只验证一次。
// 验证失败的结果不缓存。
type ChainVerifier struct {
	cache cache.Cache
	ttl   time.Duration

	// Observe 不为空时，每验证一环调用一次
	Observe func(ok bool, cached bool)
}

func NewChainVerifier(c cache.Cache, ttl time.Duration) *ChainVerifier {
	return &ChainVerifier{cache: c, ttl: ttl}
}

// VerifyChain 与包级 VerifyChain 语义相同
func (v *ChainVerifier) VerifyChain(ctx context.Context, chain []Link, rootPub *btcec.PublicKey) error {
	return verifyChain(chain, rootPub, func(depth int, link Link, issuer *btcec.PublicKey) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		key, ok := linkKey(link, issuer)
		if ok {
			var hit bool
			if err := v.cache.Get(ctx, key, &hit); err == nil && hit {
				v.observe(true, true)
				return nil
			}
		}

		if err := checkLink(depth, link, issuer); err != nil {
			v.observe(false, false)
			return err
		}
		v.observe(true, false)
		if ok {
			_ = v.cache.Set(ctx, key, true, v.ttl)
		}
		return nil
	})
}

func (v *ChainVerifier) observe(ok, cached bool) {
	if v.Observe != nil {
		v.Observe(ok, cached)
	}
}

// linkKey 对链接有效性依赖的全部内容求摘要
func linkKey(link Link, issuer *btcec.PublicKey) (string, bool) {
	c := link.Certificate
	if c == nil || link.PublicKey == nil || issuer == nil || c.SigningKey == nil {
		return "", false
	}
	identity, err := encode.Identity(c.ID, c.Tag)
	if err != nil {
		return "", false
	}
	return "arcula:link:" + crypto_util.Blake3Hex(
		issuer.SerializeCompressed(),
		link.PublicKey.SerializeCompressed(),
		[]byte{c.Version, byte(c.Scheme), byte(c.Mode)},
		identity,
		c.SigningKey.SerializeCompressed(),
		encode.Uint64(uint64(len(c.Message))), c.Message,
		c.Signature,
	), true
}
