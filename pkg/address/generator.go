package address

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
)

// Generator 把公钥字节转换为某条链上的地址
type Generator interface {
	PubKeyToAddress(pubKeyBytes []byte) (string, error)
}

// LitecoinParams 只包含编码地址需要的字段
var LitecoinParams = func() chaincfg.Params {
	p := chaincfg.MainNetParams
	p.Name = "litecoin"
	p.PubKeyHashAddrID = 0x30
	p.ScriptHashAddrID = 0x32
	p.Bech32HRPSegwit = "ltc"
	return p
}()

// ForCoin 返回币种符号 (不区分大小写) 对应的地址生成器。
// BCH 使用旧版 P2PKH 格式。
func ForCoin(symbol string) (Generator, error) {
	switch strings.ToUpper(symbol) {
	case "BTC", "BCH":
		return NewBTCGenerator(&chaincfg.MainNetParams), nil
	case "TEST":
		return NewBTCGenerator(&chaincfg.TestNet3Params), nil
	case "LTC":
		return NewBTCGenerator(&LitecoinParams), nil
	case "ETH":
		return NewETHGenerator(), nil
	default:
		return nil, fmt.Errorf("不支持的币种: %s", symbol)
	}
}

// Render 是 ForCoin 加 PubKeyToAddress 的便捷形式
func Render(symbol string, pub *btcec.PublicKey) (string, error) {
	g, err := ForCoin(symbol)
	if err != nil {
		return "", err
	}
	return g.PubKeyToAddress(pub.SerializeCompressed())
}

// SegwitForCoin 返回支持 P2WPKH 的币种 (BTC、TEST、LTC) 对应的生成器
func SegwitForCoin(symbol string) (Generator, bool) {
	switch strings.ToUpper(symbol) {
	case "BTC":
		return NewSegwitGenerator(&chaincfg.MainNetParams), true
	case "TEST":
		return NewSegwitGenerator(&chaincfg.TestNet3Params), true
	case "LTC":
		return NewSegwitGenerator(&LitecoinParams), true
	default:
		return nil, false
	}
}
