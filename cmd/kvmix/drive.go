package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"kvmix/internal/analyze"
	"kvmix/internal/config"
	"kvmix/internal/logger"
	"kvmix/internal/metrics"
	"kvmix/internal/mix"
	"kvmix/internal/scenario"
)

type driveOptions struct {
	preset      string
	mix         string
	duration    time.Duration
	workers     int
	users       int
	outDir      string
	noWarmup    bool
	rate        float64
	metricsAddr string
	analyze     bool
	listPresets bool
}

var driveFlags driveOptions

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Drive read/write load against a KV cluster and write per-worker logs",
	Example: `  # 1% writes for one minute
  kvmix drive --preset read-heavy

  # custom mix, four workers, aggregate afterwards
  kvmix drive --mix 30_70 --workers 4 --duration 2m --analyze

  # expose Prometheus metrics while driving
  kvmix drive --preset balanced --metrics-addr :9100`,
	RunE: runDrive,
}

func init() {
	addDriveFlags(driveCmd)
}

// addDriveFlags はdriveコマンドのフラグを登録する
func addDriveFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&driveFlags.preset, "preset", "", "プリセット名 (read-heavy, read-mostly, balanced, write-heavy, quick)")
	f.StringVar(&driveFlags.mix, "mix", "", "write:read比 (例: 10_90)")
	f.DurationVar(&driveFlags.duration, "duration", 0, "実行時間 (例: 30s, 2m)")
	f.IntVar(&driveFlags.workers, "workers", 0, "ワーカー数")
	f.IntVar(&driveFlags.users, "users", 0, "ワーカーごとのユーザー数")
	f.StringVar(&driveFlags.outDir, "out-dir", "", "ログの出力先")
	f.BoolVar(&driveFlags.noWarmup, "no-warmup", false, "ウォームアップを省略する")
	f.Float64Var(&driveFlags.rate, "rate", 0, "ユーザーごとの上限レート (req/s)")
	f.StringVar(&driveFlags.metricsAddr, "metrics-addr", "", "Prometheusメトリクスの公開アドレス (例: :9100)")
	f.BoolVar(&driveFlags.analyze, "analyze", false, "終了後にこのMixのログを集計する")
	f.BoolVar(&driveFlags.listPresets, "list-presets", false, "利用可能なプリセットを表示")
}

// buildScenarioConfig はデフォルト → 環境変数 → 設定ファイル → フラグの順に設定を重ねる
func buildScenarioConfig(cmd *cobra.Command) (scenario.Config, error) {
	fc := *fileConfig
	presetName := driveFlags.preset
	if presetName == "" {
		presetName = fc.Scenario.Preset
	}
	fc.Scenario.Preset = ""

	cfg := scenario.DefaultConfig()
	if presetName != "" {
		preset, ok := scenario.GetPreset(presetName)
		if !ok {
			return cfg, fmt.Errorf("unknown preset %q (available: %v)", presetName, scenario.ListPresets())
		}
		cfg = preset
	}

	if err := config.ApplyEnv(env, &cfg); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}

	cfg, err := fc.ToScenarioConfig(cfg)
	if err != nil {
		return cfg, fmt.Errorf("config file: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("mix") {
		m, err := mix.Parse(driveFlags.mix)
		if err != nil {
			return cfg, err
		}
		cfg.Mix = m
		if presetName == "" {
			cfg.Name = m.ID()
		}
	}
	if flags.Changed("duration") {
		cfg.Duration = driveFlags.duration
	}
	if flags.Changed("workers") {
		cfg.Workers = driveFlags.workers
	}
	if flags.Changed("users") {
		cfg.Client.Users = driveFlags.users
	}
	if flags.Changed("out-dir") {
		cfg.OutDir = driveFlags.outDir
	}
	if driveFlags.noWarmup {
		cfg.Warmup = false
	}
	if flags.Changed("rate") {
		cfg.Client.RatePerSec = driveFlags.rate
	}

	return cfg, cfg.Validate()
}

func runDrive(cmd *cobra.Command, args []string) error {
	if driveFlags.listPresets {
		printPresets()
		return nil
	}

	cfg, err := buildScenarioConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Println("kvmix - KV store load driver")
	fmt.Println("====================================================")
	fmt.Printf("Scenario: %s (%s)\n", cfg.Name, cfg.Mix.Title())
	fmt.Printf("Duration: %v, Workers: %d, Users/worker: %d\n", cfg.Duration, cfg.Workers, cfg.Client.Users)
	fmt.Printf("Leader: %s, Nodes: %v\n", cfg.Client.Leader, cfg.Client.Nodes)
	fmt.Printf("NUM_KEYS: %d, CLUSTER_PROB: %.2f\n", cfg.Client.NumKeys, cfg.Client.ClusterProb)
	fmt.Println("====================================================")
	fmt.Println()

	ctx, cancel := signalContext()
	defer cancel()

	engine := scenario.New(cfg)

	if driveFlags.metricsAddr != "" {
		stop, err := serveMetrics(driveFlags.metricsAddr, engine)
		if err != nil {
			return err
		}
		defer stop()
	}

	result, runErr := engine.Run(ctx)
	if result != nil {
		fmt.Println(result.Report())
	}
	if runErr != nil {
		return runErr
	}

	if driveFlags.analyze {
		ac := analyze.DefaultConfig()
		ac.Dir = cfg.OutDir
		ac.Mixes = []mix.Mix{cfg.Mix}
		report, err := analyze.New(ac).Run()
		fmt.Println(report.Format())
		return err
	}
	return nil
}

// serveMetrics はPrometheusエクスポーターを登録して/metricsを公開する
func serveMetrics(addr string, engine *scenario.Engine) (func(), error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	exporter, err := metrics.NewExporter(reg)
	if err != nil {
		return nil, err
	}
	engine.SetExporter(exporter)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("metrics", "Serving Prometheus metrics on http://%s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics", "Metrics listener failed: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

// printPresets は利用可能なプリセットを表示する
func printPresets() {
	fmt.Println("利用可能なプリセットシナリオ:")
	fmt.Println()

	for _, name := range scenario.ListPresets() {
		p, _ := scenario.GetPreset(name)
		fmt.Printf("  %-12s %-6s %s\n", name, p.Mix.ID(), p.Description)
	}

	fmt.Println()
	fmt.Println("使用例: kvmix drive --preset balanced")
}
