// Package bip44 按币种配置构造 BIP44 形状的密钥树:
//
//	m / 44' / COIN' / account' / XPUB / 0 .. public-1
//	                           / XPRV' / 0' .. private-1'
//
// XPUB 下的地址是 non-hardened 的，只凭分支公钥就能重新生成整个 XPUB 分支。
package bip44

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"arcula/pkg/derivation"
	"arcula/pkg/hierarchy"
)

const (
	Purpose uint64 = 44

	PublicBranchID   uint64 = 0
	PublicBranchTag         = "XPUB"
	PrivateBranchID  uint64 = 1
	PrivateBranchTag        = "XPRV"
	// 路径中可以用 XPRIV 代替 XPRV
	PrivateBranchAlias = "XPRIV"
)

// CoinTypes 是币种符号到 SLIP-44 编号的映射
var CoinTypes = map[string]uint64{
	"BTC":  0,
	"TEST": 1,
	"LTC":  2,
	"ETH":  60,
	"BCH":  145,
}

var (
	ErrUnknownCoin  = errors.New("未知的币种")
	ErrEmptyAccount = errors.New("账户没有任何地址")
	ErrNoAccounts   = errors.New("币种没有任何账户")
)

// Account 是一个账户下公开 (观察) 地址和私有地址的数量
type Account struct {
	Public  int `mapstructure:"public" json:"public" validate:"gte=0,lte=100000"`
	Private int `mapstructure:"private" json:"private" validate:"gte=0,lte=100000"`
}

// Config 是币种到账户列表的映射，币种符号不区分大小写
type Config map[string][]Account

// CoinType 返回币种的 SLIP-44 编号
func CoinType(symbol string) (uint64, error) {
	id, ok := CoinTypes[strings.ToUpper(symbol)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCoin, symbol)
	}
	return id, nil
}

// Normalize 把币种符号转为大写并检查每个账户
func (c Config) Normalize() (Config, error) {
	out := make(Config, len(c))
	for coin, accounts := range c {
		symbol := strings.ToUpper(strings.TrimSpace(coin))
		if _, err := CoinType(symbol); err != nil {
			return nil, err
		}
		if _, dup := out[symbol]; dup {
			return nil, fmt.Errorf("币种 %s 重复配置", symbol)
		}
		if len(accounts) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoAccounts, symbol)
		}
		for i, a := range accounts {
			if a.Public < 0 || a.Private < 0 {
				return nil, fmt.Errorf("%s 账户 %d: 地址数量为负", symbol, i)
			}
			if a.Public == 0 && a.Private == 0 {
				return nil, fmt.Errorf("%w: %s 账户 %d", ErrEmptyAccount, symbol, i)
			}
		}
		out[symbol] = accounts
	}
	return out, nil
}

// Coins 按固定顺序返回已配置的币种
func (c Config) Coins() []string {
	coins := make([]string, 0, len(c))
	for coin := range c {
		coins = append(coins, coin)
	}
	sort.Strings(coins)
	return coins
}

// BuildTree 返回 cfg 描述的树的根节点 (只有结构，没有密钥)
func BuildTree(cfg Config) (*hierarchy.Node, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	if len(cfg) == 0 {
		return nil, errors.New("模板为空")
	}

	root := hierarchy.NewRoot("")
	purpose, err := root.Add(Purpose, "", derivation.Hardened)
	if err != nil {
		return nil, err
	}

	for _, symbol := range cfg.Coins() {
		coin, err := purpose.Add(CoinTypes[symbol], symbol, derivation.Hardened)
		if err != nil {
			return nil, err
		}
		for i, a := range cfg[symbol] {
			if err := addAccount(coin, uint64(i), a); err != nil {
				return nil, fmt.Errorf("%s 账户 %d: %w", symbol, i, err)
			}
		}
	}
	return root, nil
}

func addAccount(coin *hierarchy.Node, index uint64, a Account) error {
	account, err := coin.Add(index, "", derivation.Hardened)
	if err != nil {
		return err
	}

	xpub, err := account.Add(PublicBranchID, PublicBranchTag, derivation.NonHardened)
	if err != nil {
		return err
	}
	for j := 0; j < a.Public; j++ {
		if _, err := xpub.Add(uint64(j), "", derivation.NonHardened); err != nil {
			return err
		}
	}

	xprv, err := account.Add(PrivateBranchID, PrivateBranchTag, derivation.Hardened)
	if err != nil {
		return err
	}
	for j := 0; j < a.Private; j++ {
		if _, err := xprv.Add(uint64(j), "", derivation.Hardened); err != nil {
			return err
		}
	}
	return nil
}

// AddressPath 返回一个地址的路径，例如 m/44'/BCH'/1'/XPUB/3
func AddressPath(coin string, account int, public bool, index int) string {
	branch, marker := PublicBranchTag, ""
	if !public {
		branch, marker = PrivateBranchTag, "'"
	}
	return "m/44'/" + strings.ToUpper(coin) + "'/" + strconv.Itoa(account) + "'/" +
		branch + marker + "/" + strconv.Itoa(index) + marker
}

// CoinOf 返回节点所属的币种，币种层以上的节点返回 ""
func CoinOf(n *hierarchy.Node) string {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.Depth() == 2 {
			return cur.Tag()
		}
	}
	return ""
}
