// Package main is the entry point for kvmix.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"kvmix/internal/config"
	"kvmix/internal/logger"
)

var version = "dev"

var (
	cfgFile    string
	logLevel   string
	env        *viper.Viper
	fileConfig *config.FileConfig
)

var rootCmd = &cobra.Command{
	Use:           "kvmix",
	Short:         "KV store load driver and latency log aggregator",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initConfig()
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "設定ファイルパス (YAML/JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "ログレベル (debug, info, success, warn, error)")

	rootCmd.AddCommand(driveCmd, analyzeCmd, serveCmd)
}

// initConfig は環境変数と設定ファイルを読み込む
func initConfig() error {
	env = config.NewEnv()
	if err := env.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		return err
	}

	level, err := logger.ParseLevel(env.GetString("log_level"))
	if err != nil {
		return err
	}
	logger.Default.SetLevel(level)

	fileConfig = &config.FileConfig{}
	if cfgFile == "" {
		return nil
	}
	fc, err := config.LoadFile(cfgFile)
	if err != nil {
		return err
	}
	if err := fc.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	fileConfig = fc
	logger.Debug("", "Loaded config from %s", cfgFile)
	return nil
}

// signalContext はSIGINT/SIGTERMでキャンセルされるコンテキストを返す
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			logger.Warn("", "Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("", "%v", err)
		os.Exit(1)
	}
}
