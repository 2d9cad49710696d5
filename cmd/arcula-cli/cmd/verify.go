package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/spf13/cobra"

	"arcula/pkg/certificate"
	"arcula/pkg/errno"
	"arcula/pkg/keypair"
)

// exported 是 cert / delegate 命令输出中 verify 需要的部分
type exported struct {
	PublicKey string             `json:"public_key"`
	Chain     []certificate.Link `json:"chain"`
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "用冷存储公钥验证导出的证书链",
	Long:  `读取 cert 命令导出的 JSON，只凭冷存储公钥验证证书链。不需要助记词。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootHex, _ := cmd.Flags().GetString("root")
		input, _ := cmd.Flags().GetString("input")

		rootPub, err := keypair.ParsePublicKeyHex(rootHex)
		if err != nil {
			return fmt.Errorf("无效的冷存储公钥: %w", err)
		}

		var r io.Reader = cmd.InOrStdin()
		if input != "" && input != "-" {
			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("读取输入文件失败: %w", err)
			}
			defer f.Close()
			r = f
		}

		var doc exported
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return fmt.Errorf("解析证书链失败: %w", err)
		}
		if err := verifyExported(doc, rootPub); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "证书链有效 (深度 %d)\n", len(doc.Chain))
		return nil
	},
}

func verifyExported(doc exported, rootPub *btcec.PublicKey) error {
	if len(doc.Chain) == 0 {
		// 根节点本身
		if doc.PublicKey != "" {
			pub, err := keypair.ParsePublicKeyHex(doc.PublicKey)
			if err != nil {
				return err
			}
			if pub.IsEqual(rootPub) {
				return nil
			}
		}
		return fmt.Errorf("%w: %v", errno.ErrCertificateRejected, certificate.ErrEmptyChain)
	}
	if err := certificate.VerifyChain(doc.Chain, rootPub); err != nil {
		return err
	}
	if doc.PublicKey != "" {
		pub, err := keypair.ParsePublicKeyHex(doc.PublicKey)
		if err != nil {
			return err
		}
		if !pub.IsEqual(doc.Chain[len(doc.Chain)-1].PublicKey) {
			return fmt.Errorf("%w: public_key 与链末端不一致", errno.ErrCertificateRejected)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringP("root", "r", "", "冷存储公钥 (33 字节压缩格式的十六进制)")
	verifyCmd.Flags().StringP("input", "i", "-", "证书链 JSON 文件，- 表示标准输入")
	_ = verifyCmd.MarkFlagRequired("root")
}
