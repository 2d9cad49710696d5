package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "派生整棵密钥树并列出所有地址",
	Long:  `按配置中的模板从种子派生每个节点的密钥和证书，输出冷存储公钥和所有地址。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		verify, _ := cmd.Flags().GetBool("verify")

		wallet, err := openWallet(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer wallet.Wipe()

		if verify {
			n, err := wallet.VerifyAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d 个节点的证书链验证通过\n", n)
		}

		infos, err := svc.Addresses(wallet)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd, infos)
		}

		root, err := svc.RootPublicKey(wallet)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "冷存储公钥 (Root): %s\n", root)
		fmt.Fprintln(w, separator)

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PATH\tADDRESS\tWATCH-ONLY")
		for _, info := range infos {
			fmt.Fprintf(tw, "%s\t%s\t%v\n", info.Path, info.Address, info.WatchOnly)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().Bool("json", false, "以 JSON 输出 (包含证书链)")
	keygenCmd.Flags().Bool("verify", false, "输出前验证所有节点的证书链")
}
