package cmd

import (
	"encoding/hex"

	"github.com/spf13/cobra"

	"arcula/pkg/certificate"
	"arcula/pkg/kms"
)

type delegatedInfo struct {
	ID         uint64             `json:"id"`
	Tag        string             `json:"tag,omitempty"`
	PublicKey  string             `json:"public_key"`
	SigningKey string             `json:"signing_key_id"`
	Chain      []certificate.Link `json:"chain"`
}

var delegateCmd = &cobra.Command{
	Use:   "delegate <path>",
	Short: "把节点的签名权委托给 KMS 并签发观察子节点",
	Long: `把 path 节点的签名密钥导入本地 KMS，然后在不接触任何支出秘密的情况下
为该节点签发 count 个 non-hardened 子节点，并输出它们的证书链。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetUint64("count")
		start, _ := cmd.Flags().GetUint64("start")
		tag, _ := cmd.Flags().GetString("tag")

		wallet, err := openWallet(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer wallet.Wipe()

		km := kms.NewLocalKMS()
		defer km.Close()

		d, err := wallet.Delegate(args[0], km)
		if err != nil {
			return err
		}
		defer d.Revoke()

		out := make([]delegatedInfo, 0, count)
		for id := start; id < start+count; id++ {
			issued, err := d.Issue(id, tag)
			if err != nil {
				return err
			}
			if err := d.Verify(issued); err != nil {
				return err
			}
			out = append(out, delegatedInfo{
				ID:         issued.ID,
				Tag:        issued.Tag,
				PublicKey:  hex.EncodeToString(issued.PublicKey.SerializeCompressed()),
				SigningKey: issued.SigningKeyID,
				Chain:      issued.Chain(),
			})
		}
		return printJSON(cmd, out)
	},
}

func init() {
	rootCmd.AddCommand(delegateCmd)
	delegateCmd.Flags().Uint64("count", 1, "签发的子节点数量")
	delegateCmd.Flags().Uint64("start", 0, "第一个子节点的 id")
	delegateCmd.Flags().String("tag", "", "子节点标签")
}
