package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"kvmix/internal/analyze"
	"kvmix/internal/mix"
	"kvmix/internal/scenario"
)

// ドライバーが読む環境変数
const (
	EnvNumKeys     = "NUM_KEYS"
	EnvClusterProb = "CLUSTER_PROB"
	EnvWriteRatio  = "WRITE_RATIO"
	EnvReadRatio   = "READ_RATIO"
	EnvNodes       = "NODES"
	EnvLeaderHost  = "LEADER_HOST"
	EnvOutDir      = "KVMIX_OUT_DIR"
)

// NewEnv は環境変数を読むviperを返す
func NewEnv() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

// ApplyEnv は設定されている環境変数だけをscenario.Configに反映する
func ApplyEnv(v *viper.Viper, config *scenario.Config) error {
	if v.IsSet(EnvNumKeys) {
		n, err := envInt(v, EnvNumKeys)
		if err != nil {
			return err
		}
		if n <= 0 {
			return fmt.Errorf("%s must be a positive integer, got %q", EnvNumKeys, v.GetString(EnvNumKeys))
		}
		config.Client.NumKeys = n
	}
	if v.IsSet(EnvClusterProb) {
		p, err := envFloat(v, EnvClusterProb)
		if err != nil {
			return err
		}
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %q", EnvClusterProb, v.GetString(EnvClusterProb))
		}
		config.Client.ClusterProb = p
	}

	if v.IsSet(EnvWriteRatio) || v.IsSet(EnvReadRatio) {
		m, err := EnvMix(v, config.Mix)
		if err != nil {
			return err
		}
		if err := m.Validate(); err != nil {
			return err
		}
		config.Mix = m
	}

	if v.IsSet(EnvNodes) {
		nodes := splitList(v.GetString(EnvNodes))
		if len(nodes) == 0 {
			return fmt.Errorf("%s is empty", EnvNodes)
		}
		config.Client.Nodes = nodes
	}
	if v.IsSet(EnvLeaderHost) {
		config.Client.Leader = strings.TrimSpace(v.GetString(EnvLeaderHost))
	}
	if v.IsSet(EnvOutDir) {
		config.OutDir = v.GetString(EnvOutDir)
	}
	return nil
}

// ApplyAnalyzeEnv は集計側が読む環境変数を反映する
func ApplyAnalyzeEnv(v *viper.Viper, config *analyze.Config) {
	if v.IsSet(EnvOutDir) {
		config.Dir = v.GetString(EnvOutDir)
	}
}

// EnvMix は WRITE_RATIO / READ_RATIO からMixを組み立てる
func EnvMix(v *viper.Viper, fallback mix.Mix) (mix.Mix, error) {
	m := fallback
	if v.IsSet(EnvWriteRatio) {
		n, err := envInt(v, EnvWriteRatio)
		if err != nil {
			return fallback, err
		}
		m.Write = n
	}
	if v.IsSet(EnvReadRatio) {
		n, err := envInt(v, EnvReadRatio)
		if err != nil {
			return fallback, err
		}
		m.Read = n
	}
	return m, nil
}

// envInt は数値として読めない値をエラーにする（viperのGetIntは0を返す）
func envInt(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return n, nil
}

// envFloat は数値として読めない値をエラーにする
func envFloat(v *viper.Viper, key string) (float64, error) {
	raw := strings.TrimSpace(v.GetString(key))
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, raw)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
