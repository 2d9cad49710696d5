package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"arcula/internal/service/wallet"
	"arcula/pkg/config"
	"arcula/pkg/errno"
	"arcula/pkg/logger"
	"arcula/pkg/monitor"
)

var (
	cfgFile      string
	mnemonic     string
	passphrase   string
	keystorePath string

	cfg     *config.Config
	metrics *monitor.Metrics
	svc     *wallet.Service
)

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "arcula-cli",
	Short: "Arcula 分层确定性密钥与授权证书工具",
	Long: `从助记词派生整棵 Arcula 密钥树，并为每个节点签发授权证书。
冷存储公钥 (根公钥) 是验证所有证书链的唯一信任锚。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if keystorePath != "" {
			c.Seed.Keystore = keystorePath
		}
		cfg = c

		if err := logger.Init(cfg.App.Env); err != nil {
			return err
		}
		metrics = monitor.NewMetrics(nil)
		svc = wallet.NewService(cfg, metrics, logger.Named("wallet"))
		return nil
	},
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Sync()
	if err != nil {
		code, msg := errno.Decode(err)
		fmt.Fprintf(os.Stderr, "错误 [%d]: %s\n", code, msg)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "配置文件路径 (默认查找 ./config.yaml 和 ./config/config.yaml)")
	flags.StringVarP(&mnemonic, "mnemonic", "m", "", "助记词 (不建议在命令行中传入，留空则读取配置或交互输入)")
	flags.StringVar(&passphrase, "passphrase", "", "BIP-39 密码 (第 25 个单词)")
	flags.StringVarP(&keystorePath, "keystore", "k", "", "加密的助记词 keystore 文件路径")
}
