package bip39

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"arcula/pkg/errno"
	"arcula/pkg/keypair"
	"arcula/pkg/safe_random"
)

// MnemonicService 提供助记词相关的功能，作为 keygen 的种子来源
type MnemonicService struct{}

// NewMnemonicService 创建一个新的助记词服务实例
func NewMnemonicService() *MnemonicService {
	return &MnemonicService{}
}

// GenerateMnemonic 生成一个新的随机助记词 (BIP-39)。
// bitSize: 熵的位数，128 到 256 之间且为 32 的倍数 (12 到 24 个单词)。
func (s *MnemonicService) GenerateMnemonic(bitSize int) (string, error) {
	if bitSize%32 != 0 || bitSize < 128 || bitSize > 256 {
		return "", fmt.Errorf("熵位数必须是 128 到 256 之间 32 的倍数, 得到 %d", bitSize)
	}

	entropy, err := safe_random.GenerateRandomBytes(bitSize / 8)
	if err != nil {
		return "", fmt.Errorf("生成熵失败: %w", err)
	}
	defer keypair.Zero(entropy)

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("生成助记词失败: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic 验证助记词是否有效 (单词表和校验和)
func (s *MnemonicService) ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(normalize(mnemonic))
}

// MnemonicToSeed 将助记词转换为 64 字节种子。
// passphrase 为可选密码 ("第 25 个单词")，不需要时传空字符串。
func (s *MnemonicService) MnemonicToSeed(mnemonic string, passphrase string) ([]byte, error) {
	seed, err := bip39.NewSeedWithErrorChecking(normalize(mnemonic), passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrInvalidSeed, err)
	}
	return seed, nil
}

// SeedSecret 与 MnemonicToSeed 相同，但把种子包装成可销毁的 Secret
func (s *MnemonicService) SeedSecret(mnemonic string, passphrase string) (*keypair.Secret, error) {
	seed, err := s.MnemonicToSeed(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer keypair.Zero(seed)
	return keypair.NewSecret(seed), nil
}

// normalize 合并多余空白，方便处理从终端粘贴的助记词
func normalize(mnemonic string) string {
	return strings.Join(strings.Fields(mnemonic), " ")
}
