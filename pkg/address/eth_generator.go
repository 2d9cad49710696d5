package address

import (
	"crypto/ecdsa"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// ETHGenerator 以太坊地址生成器
type ETHGenerator struct{}

func NewETHGenerator() *ETHGenerator {
	return &ETHGenerator{}
}

// PubKeyToAddress 将公钥字节 (33 字节压缩或 65 字节非压缩) 转换为 EIP-55 地址
func (g *ETHGenerator) PubKeyToAddress(pubKeyBytes []byte) (string, error) {
	var (
		pub *ecdsa.PublicKey
		err error
	)
	switch len(pubKeyBytes) {
	case 33:
		pub, err = ethcrypto.DecompressPubkey(pubKeyBytes)
	case 65:
		pub, err = ethcrypto.UnmarshalPubkey(pubKeyBytes)
	default:
		return "", fmt.Errorf("无效的公钥长度: %d", len(pubKeyBytes))
	}
	if err != nil {
		return "", fmt.Errorf("解析公钥失败: %w", err)
	}
	return ethcrypto.PubkeyToAddress(*pub).Hex(), nil
}
