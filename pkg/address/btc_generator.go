package address

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// BTCGenerator 比特币系 (BTC、BCH、LTC 及测试网) 地址生成器
type BTCGenerator struct {
	network *chaincfg.Params
	segwit  bool
}

// NewBTCGenerator 生成旧版 P2PKH 地址
func NewBTCGenerator(network *chaincfg.Params) *BTCGenerator {
	return &BTCGenerator{network: network}
}

// NewSegwitGenerator 生成 P2WPKH (bech32) 地址，网络参数需要有 Bech32HRPSegwit
func NewSegwitGenerator(network *chaincfg.Params) *BTCGenerator {
	return &BTCGenerator{network: network, segwit: true}
}

// PubKeyToAddress 对压缩公钥做 Hash160 后编码为地址。
// 非压缩公钥会先转换为压缩格式，同一个密钥只对应一个地址。
func (g *BTCGenerator) PubKeyToAddress(pubKeyBytes []byte) (string, error) {
	pub, err := btcec.ParsePubKey(pubKeyBytes)
	if err != nil {
		return "", fmt.Errorf("解析公钥失败: %w", err)
	}
	hash := btcutil.Hash160(pub.SerializeCompressed())

	var addr btcutil.Address
	if g.segwit {
		addr, err = btcutil.NewAddressWitnessPubKeyHash(hash, g.network)
	} else {
		addr, err = btcutil.NewAddressPubKeyHash(hash, g.network)
	}
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}
