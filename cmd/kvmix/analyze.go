package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kvmix/internal/analyze"
	"kvmix/internal/config"
	"kvmix/internal/mix"
)

type analyzeOptions struct {
	dir   string
	mixes []string
	bins  int
}

var analyzeFlags analyzeOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Merge per-worker logs into latency and interval histograms, then delete them",
	Example: `  # default mixes (1_99, 10_90, 50_50, 90_10) in the current directory
  kvmix analyze

  # only two mixes from a log directory
  kvmix analyze --dir logs --mixes 1_99,50_50`,
	RunE: runAnalyze,
}

func init() {
	addAnalyzeFlags(analyzeCmd)
}

// addAnalyzeFlags はanalyzeコマンドのフラグを登録する
func addAnalyzeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&analyzeFlags.dir, "dir", "", "ログのディレクトリ")
	f.StringSliceVar(&analyzeFlags.mixes, "mixes", nil, "集計するMix (例: 1_99,50_50)")
	f.IntVar(&analyzeFlags.bins, "bins", 0, "ヒストグラムのビン数")
}

// buildAnalyzeConfig はデフォルト → 環境変数 → 設定ファイル → フラグの順に設定を重ねる
func buildAnalyzeConfig(cmd *cobra.Command) (analyze.Config, error) {
	cfg := analyze.DefaultConfig()
	config.ApplyAnalyzeEnv(env, &cfg)

	cfg, err := fileConfig.ToAnalyzeConfig(cfg)
	if err != nil {
		return cfg, fmt.Errorf("config file: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Dir = analyzeFlags.dir
	}
	if flags.Changed("mixes") {
		mixes, err := mix.ParseList(analyzeFlags.mixes)
		if err != nil {
			return cfg, err
		}
		cfg.Mixes = mixes
	}
	if flags.Changed("bins") {
		if analyzeFlags.bins <= 0 {
			return cfg, fmt.Errorf("bins must be positive, got %d", analyzeFlags.bins)
		}
		cfg.Bins = analyzeFlags.bins
	}
	return cfg, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := buildAnalyzeConfig(cmd)
	if err != nil {
		return err
	}

	report, err := analyze.New(cfg).Run()
	fmt.Println(report.Format())
	return err
}
