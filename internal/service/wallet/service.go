package wallet

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"arcula/pkg/address"
	"arcula/pkg/arcula"
	"arcula/pkg/bip39"
	"arcula/pkg/bip44"
	"arcula/pkg/cache"
	"arcula/pkg/certificate"
	"arcula/pkg/config"
	"arcula/pkg/errno"
	"arcula/pkg/hierarchy"
	"arcula/pkg/keypair"
	"arcula/pkg/keystore"
	"arcula/pkg/monitor"
)

var (
	ErrNoMnemonic = errors.New("未提供助记词")
	ErrNoPassword = errors.New("加载 keystore 失败: 未提供口令 (ARCULA_SEED_PASSWORD)")
)

type Service struct {
	cfg      *config.Config
	mnemonic *bip39.MnemonicService
	metrics  *monitor.Metrics
	log      *zap.Logger
}

func NewService(cfg *config.Config, metrics *monitor.Metrics, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		cfg:      cfg,
		mnemonic: bip39.NewMnemonicService(),
		metrics:  metrics,
		log:      log,
	}
}

// NewMnemonic 生成新的助记词 (bitSize 为熵的位数，128 对应 12 个单词)
func (s *Service) NewMnemonic(bitSize int) (string, error) {
	return s.mnemonic.GenerateMnemonic(bitSize)
}

// Options 把配置转换为引擎选项
func (s *Service) Options() ([]arcula.Option, error) {
	scheme, err := keypair.ParseScheme(s.cfg.Arcula.Scheme)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrInvalidConfig, err)
	}
	order, err := hierarchy.ParseOrder(s.cfg.Arcula.Traversal)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrInvalidConfig, err)
	}
	ttl := s.cfg.Arcula.VerifyCacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return []arcula.Option{
		arcula.WithScheme(scheme),
		arcula.WithTraversal(order),
		arcula.WithWorkers(s.cfg.Arcula.Workers),
		arcula.WithLogger(s.log.Named("engine")),
		arcula.WithMetrics(s.metrics),
		arcula.WithVerifyCache(cache.NewMemoryCache(ttl, 2*ttl), ttl),
	}, nil
}

// Open 从助记词恢复钱包并为模板中的每个节点生成密钥。
// mnemonic 为空时使用配置中的助记词和密码。
func (s *Service) Open(ctx context.Context, mnemonic, passphrase string) (*bip44.Wallet, error) {
	if mnemonic == "" {
		var err error
		if mnemonic, err = s.configuredMnemonic(); err != nil {
			return nil, err
		}
		passphrase = s.cfg.Seed.Passphrase
	}

	seed, err := s.mnemonic.MnemonicToSeed(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer keypair.Zero(seed)

	opts, err := s.Options()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	w, err := bip44.NewWallet(ctx, seed, s.cfg.Template, opts...)
	if err != nil {
		s.log.Error("open wallet failed", zap.Error(err))
		return nil, err
	}
	s.log.Info("wallet opened",
		zap.Strings("coins", s.cfg.Template.Coins()),
		zap.Int("nodes", hierarchy.Count(w.Root())),
		zap.Duration("elapsed", time.Since(start)),
	)
	return w, nil
}

// configuredMnemonic 优先使用配置中的明文助记词，其次是 keystore 文件
func (s *Service) configuredMnemonic() (string, error) {
	seed := s.cfg.Seed
	if seed.Mnemonic != "" {
		return seed.Mnemonic, nil
	}
	if seed.Keystore == "" {
		return "", ErrNoMnemonic
	}
	s.log.Info("loading mnemonic from keystore", zap.String("path", seed.Keystore))
	k, err := keystore.LoadFromFile(seed.Keystore)
	if err != nil {
		return "", err
	}
	if seed.Password == "" {
		return "", ErrNoPassword
	}
	return keystore.DecryptMnemonic(k, seed.Password)
}

// SaveKeystore 把助记词加密写入 path，root 为对应的冷存储公钥 (可为空)
func (s *Service) SaveKeystore(path, mnemonic, password, root string, params keystore.Params) error {
	if !s.mnemonic.ValidateMnemonic(mnemonic) {
		return fmt.Errorf("%w: 助记词无效", errno.ErrInvalidSeed)
	}
	k, err := keystore.Encrypt(mnemonic, password, params)
	if err != nil {
		return err
	}
	k.Root = root
	return k.SaveToFile(path)
}

// KeyInfo 是导出给外部的节点信息，不含任何秘密
type KeyInfo struct {
	Path       string             `json:"path"`
	Coin       string             `json:"coin,omitempty"`
	Address    string             `json:"address,omitempty"`
	Segwit     string             `json:"segwit,omitempty"`
	PublicKey  string             `json:"public_key"`
	SigningKey string             `json:"signing_key"`
	WatchOnly  bool               `json:"watch_only"`
	Chain      []certificate.Link `json:"chain"`
}

// Describe 返回 path 指向的节点信息及其证书链
func (s *Service) Describe(w *bip44.Wallet, path string) (*KeyInfo, error) {
	node, err := w.Lookup(path)
	if err != nil {
		return nil, err
	}
	return describe(node)
}

// Addresses 返回模板中所有地址节点的信息，按路径顺序排列
func (s *Service) Addresses(w *bip44.Wallet) ([]*KeyInfo, error) {
	var out []*KeyInfo
	err := hierarchy.Walk(w.Root(), hierarchy.DepthFirst, func(n *hierarchy.Node) error {
		if !isAddress(n) {
			return nil
		}
		info, err := describe(n)
		if err != nil {
			return err
		}
		out = append(out, info)
		return nil
	})
	return out, err
}

// RootPublicKey 返回冷存储公钥的十六进制形式
func (s *Service) RootPublicKey(w *bip44.Wallet) (string, error) {
	pub, err := w.ColdStoragePublicKey()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(pub.SerializeCompressed()), nil
}

func describe(n *hierarchy.Node) (*KeyInfo, error) {
	keys, err := n.Keys()
	if err != nil {
		return nil, err
	}
	chain, err := n.Chain()
	if err != nil {
		return nil, err
	}
	info := &KeyInfo{
		Path:       n.Path(),
		Coin:       bip44.CoinOf(n),
		PublicKey:  hex.EncodeToString(keys.PublicKey.SerializeCompressed()),
		SigningKey: hex.EncodeToString(keys.Signing.SerializePublic()),
		WatchOnly:  keys.WatchOnly(),
		Chain:      chain,
	}
	if isAddress(n) {
		info.Address, err = address.Render(info.Coin, keys.PublicKey)
		if err != nil {
			return nil, err
		}
		if g, ok := address.SegwitForCoin(info.Coin); ok {
			if info.Segwit, err = g.PubKeyToAddress(keys.PublicKey.SerializeCompressed()); err != nil {
				return nil, err
			}
		}
	}
	return info, nil
}

// isAddress 判断节点是否位于 XPUB / XPRV 分支之下
func isAddress(n *hierarchy.Node) bool {
	p := n.Parent()
	if p == nil || p.Depth() != 4 {
		return false
	}
	return p.Tag() == bip44.PublicBranchTag || p.Tag() == bip44.PrivateBranchTag
}
