package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/winkit/nativeclipboard"
)

var (
	cfgFile  string
	logLevel string

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "clip",
	Short: "Read and write the system clipboard",
	Long: `clip copies text and images to and from the native system clipboard.

Text is read from and written to stdout/stdin as UTF-8. Images can be
loaded from and saved to PNG, BMP and JPEG files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := nativeclipboard.DefaultConfig()
		if cfgFile != "" {
			var err error
			if cfg, err = nativeclipboard.LoadConfig(cfgFile); err != nil {
				return err
			}
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		l, err := nativeclipboard.NewLogger(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
		nativeclipboard.SetLogger(l)
		nativeclipboard.Configure(cfg)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(getCmd, setCmd, clearCmd, imageCmd, watchCmd)
}
