package cmd

import (
	"path"

	"github.com/spf13/cobra"

	"github.com/sincaw/vodstream/cmd/vodstream/server/common"
	"github.com/sincaw/vodstream/cmd/vodstream/server/utils"
	"github.com/sincaw/vodstream/pkg"
)

var (
	configPath string
	logLevel   string

	logger = utils.Logger()
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vodstream",
		Short:         "stream video files over http byte ranges",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default .config.yaml beside the binary)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level: debug, info, warn, error")

	cmd.AddCommand(
		NewServeCmd(),
		NewScanCmd(),
		NewListCmd(),
		NewCompactCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// Execute runs root command, any error is fatal
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		logger.Fatalf("%v", err)
	}
}

// loadConfig reads config from flag path, or from the default file beside the binary when present
func loadConfig() (*common.Config, error) {
	p, allowMissing := configPath, false
	if p == "" {
		dir, err := utils.SelfDir()
		if err != nil {
			return nil, err
		}
		p, allowMissing = path.Join(dir, common.DefaultConfigFile), true
	}

	config, err := common.Load(p, allowMissing)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		config.LogLevel = logLevel
	}
	lv, err := utils.ParseLevel(config.LogLevel)
	if err != nil {
		return nil, err
	}
	utils.SetLevel(lv)
	logger.Debugf("config loaded from %s", p)
	return config, nil
}

func openCatalog(config *common.Config, opts ...pkg.Option) (pkg.DB, error) {
	opts = append(opts, pkg.WithLogger(logger))
	return pkg.New(config.DatabasePath, opts...)
}
