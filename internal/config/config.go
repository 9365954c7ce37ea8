package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"kvmix/internal/analyze"
	"kvmix/internal/mix"
	"kvmix/internal/scenario"
)

// FileConfig は設定ファイルの構造
type FileConfig struct {
	Scenario ScenarioConfig `yaml:"scenario" json:"scenario"`
	Analyze  AnalyzeConfig  `yaml:"analyze" json:"analyze"`
}

// ScenarioConfig はシナリオ設定
type ScenarioConfig struct {
	Preset      string `yaml:"preset" json:"preset"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Mix         string `yaml:"mix" json:"mix"`
	Duration    string `yaml:"duration" json:"duration"`
	Workers     int    `yaml:"workers" json:"workers"`
	OutDir      string `yaml:"out_dir" json:"out_dir"`

	Warmup ClientWarmup `yaml:"warmup" json:"warmup"`
	Client ClientConfig `yaml:"client" json:"client"`
}

// ClientWarmup はウォームアップ設定
type ClientWarmup struct {
	Enabled     *bool `yaml:"enabled" json:"enabled"`
	Concurrency int   `yaml:"concurrency" json:"concurrency"`
}

// ClientConfig はクライアント設定
type ClientConfig struct {
	Nodes       []string `yaml:"nodes" json:"nodes"`
	Leader      string   `yaml:"leader" json:"leader"`
	NumKeys     int      `yaml:"num_keys" json:"num_keys"`
	ClusterProb *float64 `yaml:"cluster_prob" json:"cluster_prob"`
	Users       int      `yaml:"users" json:"users"`
	MinWait     string   `yaml:"min_wait" json:"min_wait"`
	MaxWait     string   `yaml:"max_wait" json:"max_wait"`
	RatePerSec  float64  `yaml:"rate" json:"rate"`
	Timeout     string   `yaml:"timeout" json:"timeout"`
}

// AnalyzeConfig は集計設定
type AnalyzeConfig struct {
	Dir   string   `yaml:"dir" json:"dir"`
	Mixes []string `yaml:"mixes" json:"mixes"`
	Bins  int      `yaml:"bins" json:"bins"`
}

// LoadFile は設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// ToScenarioConfig はFileConfigをbaseに重ねたscenario.Configを返す
// presetが指定されていればbaseの代わりにそのプリセットを土台にする
func (f *FileConfig) ToScenarioConfig(base scenario.Config) (scenario.Config, error) {
	sc := f.Scenario
	config := base

	if sc.Preset != "" {
		preset, ok := scenario.GetPreset(sc.Preset)
		if !ok {
			return config, fmt.Errorf("unknown preset: %s", sc.Preset)
		}
		config = preset
	}

	if sc.Name != "" {
		config.Name = sc.Name
	}
	if sc.Description != "" {
		config.Description = sc.Description
	}
	if sc.Mix != "" {
		m, err := mix.Parse(sc.Mix)
		if err != nil {
			return config, err
		}
		config.Mix = m
	}
	if err := setDuration(&config.Duration, sc.Duration, "duration"); err != nil {
		return config, err
	}
	if sc.Workers > 0 {
		config.Workers = sc.Workers
	}
	if sc.OutDir != "" {
		config.OutDir = sc.OutDir
	}

	// ウォームアップ設定
	if sc.Warmup.Enabled != nil {
		config.Warmup = *sc.Warmup.Enabled
	}
	if sc.Warmup.Concurrency > 0 {
		config.WarmupConcurrency = sc.Warmup.Concurrency
	}

	// Client設定
	cc := sc.Client
	if len(cc.Nodes) > 0 {
		config.Client.Nodes = cc.Nodes
	}
	if cc.Leader != "" {
		config.Client.Leader = cc.Leader
	}
	if cc.NumKeys > 0 {
		config.Client.NumKeys = cc.NumKeys
	}
	if cc.ClusterProb != nil {
		config.Client.ClusterProb = *cc.ClusterProb
	}
	if cc.Users > 0 {
		config.Client.Users = cc.Users
	}
	if cc.RatePerSec > 0 {
		config.Client.RatePerSec = cc.RatePerSec
	}
	if err := setDuration(&config.Client.MinWait, cc.MinWait, "client.min_wait"); err != nil {
		return config, err
	}
	if err := setDuration(&config.Client.MaxWait, cc.MaxWait, "client.max_wait"); err != nil {
		return config, err
	}
	if err := setDuration(&config.Client.Timeout, cc.Timeout, "client.timeout"); err != nil {
		return config, err
	}

	return config, nil
}

// ToAnalyzeConfig はFileConfigをbaseに重ねたanalyze.Configを返す
func (f *FileConfig) ToAnalyzeConfig(base analyze.Config) (analyze.Config, error) {
	ac := f.Analyze
	config := base

	if ac.Dir != "" {
		config.Dir = ac.Dir
	}
	if len(ac.Mixes) > 0 {
		mixes, err := mix.ParseList(ac.Mixes)
		if err != nil {
			return config, err
		}
		config.Mixes = mixes
	}
	if ac.Bins > 0 {
		config.Bins = ac.Bins
	}
	return config, nil
}

func setDuration(dst *time.Duration, s, field string) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	*dst = d
	return nil
}

// Validate は設定を検証する
func (f *FileConfig) Validate() error {
	sc := f.Scenario

	if sc.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	if sc.Warmup.Concurrency < 0 {
		return fmt.Errorf("warmup.concurrency must be non-negative")
	}
	if sc.Client.NumKeys < 0 {
		return fmt.Errorf("client.num_keys must be non-negative")
	}
	if p := sc.Client.ClusterProb; p != nil && (*p < 0 || *p > 1) {
		return fmt.Errorf("client.cluster_prob must be between 0 and 1")
	}
	if sc.Client.Users < 0 {
		return fmt.Errorf("client.users must be non-negative")
	}
	if sc.Client.RatePerSec < 0 {
		return fmt.Errorf("client.rate must be non-negative")
	}
	if sc.Mix != "" {
		if _, err := mix.Parse(sc.Mix); err != nil {
			return err
		}
	}
	if f.Analyze.Bins < 0 {
		return fmt.Errorf("analyze.bins must be non-negative")
	}
	if len(f.Analyze.Mixes) > 0 {
		if _, err := mix.ParseList(f.Analyze.Mixes); err != nil {
			return err
		}
	}

	return nil
}
