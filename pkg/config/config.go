package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"arcula/pkg/bip44"
	"arcula/pkg/errno"
	"arcula/pkg/validator"
)

type Config struct {
	App      AppConfig    `mapstructure:"app"`
	Arcula   ArculaConfig `mapstructure:"arcula"`
	Seed     SeedConfig   `mapstructure:"seed"`
	Template bip44.Config `mapstructure:"template" validate:"required,dive,keys,required,endkeys,required,dive"`
}

type AppConfig struct {
	Env string `mapstructure:"env" validate:"oneof=development production test"`
}

type ArculaConfig struct {
	Scheme         string        `mapstructure:"scheme" validate:"oneof=ecdsa schnorr"`
	Traversal      string        `mapstructure:"traversal" validate:"oneof=dfs bfs"`
	Workers        int           `mapstructure:"workers" validate:"gte=0,lte=1024"`
	VerifyCacheTTL time.Duration `mapstructure:"verify_cache_ttl" validate:"gte=0"`
}

type SeedConfig struct {
	Mnemonic   string `mapstructure:"mnemonic"`   // 通常通过环境变量 ARCULA_SEED_MNEMONIC 传入
	Passphrase string `mapstructure:"passphrase"` // 通常通过环境变量 ARCULA_SEED_PASSPHRASE 传入

	// 未配置助记词时从加密的 keystore 文件读取
	Keystore string `mapstructure:"keystore"`
	Password string `mapstructure:"password"` // ARCULA_SEED_PASSWORD
}

// Load 读取配置文件、环境变量和默认值。
// file 为空时在当前目录和 ./config 下查找 config.yaml，找不到文件不算错误。
func Load(file string) (*Config, error) {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config") // name of config file (without extension)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// 环境变量设置
	v.SetEnvPrefix("ARCULA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: 读取配置文件失败: %v", errno.ErrInvalidConfig, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: 解析配置失败: %v", errno.ErrInvalidConfig, err)
	}
	if len(cfg.Template) == 0 {
		cfg.Template = DefaultTemplate()
	}
	cfg.Arcula.Scheme = strings.ToLower(cfg.Arcula.Scheme)
	cfg.Arcula.Traversal = strings.ToLower(cfg.Arcula.Traversal)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查结构体标签以及模板本身
func (c *Config) Validate() error {
	if err := validator.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", errno.ErrInvalidConfig, err)
	}
	template, err := c.Template.Normalize()
	if err != nil {
		return fmt.Errorf("%w: template: %v", errno.ErrInvalidConfig, err)
	}
	c.Template = template
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")

	v.SetDefault("arcula.scheme", "ecdsa")
	v.SetDefault("arcula.traversal", "bfs")
	v.SetDefault("arcula.workers", 0)
	v.SetDefault("arcula.verify_cache_ttl", "10m")

	v.SetDefault("seed.mnemonic", "")
	v.SetDefault("seed.passphrase", "")
	v.SetDefault("seed.keystore", "")
	v.SetDefault("seed.password", "")
}

// DefaultTemplate 未配置 template 时使用：一个 BTC 账户
func DefaultTemplate() bip44.Config {
	return bip44.Config{"BTC": {{Public: 5, Private: 1}}}
}
