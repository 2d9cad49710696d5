package cmd

import (
	"github.com/spf13/cobra"
)

var certCmd = &cobra.Command{
	Use:   "cert <path>",
	Short: "导出节点的签名公钥和证书链",
	Long: `导出 path 指向节点的公钥、签名公钥以及从根到该节点的证书链 (JSON)。
输出可以交给 verify 命令，只凭冷存储公钥独立验证。

路径示例: m/44'/BTC'/0'/XPUB/3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wallet, err := openWallet(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer wallet.Wipe()

		info, err := svc.Describe(wallet, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, info)
	},
}

func init() {
	rootCmd.AddCommand(certCmd)
}
