package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"arcula/pkg/keystore"
)

// newCmd 代表 new 命令
var newCmd = &cobra.Command{
	Use:   "new",
	Short: "创建一个新的钱包",
	Long:  `生成一个新的随机 BIP-39 助记词，按模板派生整棵树并显示冷存储公钥。可选地把助记词加密保存到 keystore。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bits, _ := cmd.Flags().GetInt("bits")
		out, _ := cmd.Flags().GetString("out")
		light, _ := cmd.Flags().GetBool("light")

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "正在生成新钱包...")
		fmt.Fprintln(w, separator)

		// 1. 生成助记词
		m, err := svc.NewMnemonic(bits)
		if err != nil {
			return fmt.Errorf("生成助记词失败: %w", err)
		}
		if out == "" {
			fmt.Fprintf(w, "助记词 (Mnemonic): \n%s\n", m)
			fmt.Fprintln(w, separator)
		}

		// 2. keygen
		wallet, err := svc.Open(cmd.Context(), m, passphrase)
		if err != nil {
			return err
		}
		root, err := svc.RootPublicKey(wallet)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "冷存储公钥 (Root): %s\n", root)

		// 3. 保存 keystore
		if out != "" {
			pw, err := readSecret(cmd, "请设置 keystore 口令: ")
			if err != nil {
				return err
			}
			confirm, err := readSecret(cmd, "请再次输入口令: ")
			if err != nil {
				return err
			}
			if pw == "" || pw != confirm {
				return errors.New("两次输入的口令不一致或为空")
			}
			params := keystore.StandardParams
			if light {
				params = keystore.LightParams
			}
			if err := svc.SaveKeystore(out, m, pw, root, params); err != nil {
				return fmt.Errorf("保存 keystore 失败: %w", err)
			}
			fmt.Fprintf(w, "助记词已加密保存到 %s\n", out)
		}
		fmt.Fprintln(w, separator)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().Int("bits", 256, "助记词熵的位数 (128 对应 12 个单词，256 对应 24 个单词)")
	newCmd.Flags().StringP("out", "o", "", "把助记词加密保存到该 keystore 文件，而不是打印出来")
	newCmd.Flags().Bool("light", false, "keystore 使用较低的 scrypt 代价")
}
