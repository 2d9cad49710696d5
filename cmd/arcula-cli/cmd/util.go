package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"arcula/pkg/bip44"
)

const separator = "---------------------------------------------------"

// openWallet 按 --mnemonic、配置、keystore、交互输入的顺序取得助记词并执行 keygen
func openWallet(ctx context.Context, cmd *cobra.Command) (*bip44.Wallet, error) {
	m := mnemonic
	if m == "" && cfg.Seed.Mnemonic == "" {
		switch {
		case cfg.Seed.Keystore != "" && cfg.Seed.Password == "":
			pw, err := readSecret(cmd, "请输入 keystore 口令: ")
			if err != nil {
				return nil, err
			}
			cfg.Seed.Password = pw
		case cfg.Seed.Keystore == "":
			secret, err := readSecret(cmd, "请输入助记词: ")
			if err != nil {
				return nil, err
			}
			m = secret
		}
	}
	return svc.Open(ctx, m, passphrase)
}

// readSecret 在终端上无回显读取一行，非终端时直接读取标准输入的一行
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("读取输入失败: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := stdinReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("读取输入失败: %w", err)
	}
	return strings.TrimSpace(line), nil
}

var (
	stdinSrc io.Reader
	stdinBuf *bufio.Reader
)

// stdinReader 对同一个输入源复用缓冲，连续读取多行时不会丢数据
func stdinReader(r io.Reader) *bufio.Reader {
	if r != stdinSrc {
		stdinSrc, stdinBuf = r, bufio.NewReader(r)
	}
	return stdinBuf
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
