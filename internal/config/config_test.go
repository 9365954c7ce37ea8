package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kvmix/internal/analyze"
	"kvmix/internal/mix"
	"kvmix/internal/scenario"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	return path
}

func TestLoadFileYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
scenario:
  name: contention
  mix: "10_90"
  duration: 20s
  workers: 4
  out_dir: logs
  warmup:
    enabled: false
    concurrency: 8
  client:
    nodes: [http://kv1:8000, http://kv2:8000]
    leader: http://kv1:8000
    num_keys: 10
    cluster_prob: 0
    users: 25
    min_wait: 5ms
    max_wait: 20ms
    rate: 50
analyze:
  dir: logs
  mixes: ["1_99", "50_50"]
  bins: 30
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if cfg.Scenario.Name != "contention" {
		t.Errorf("expected name 'contention', got '%s'", cfg.Scenario.Name)
	}
	if cfg.Scenario.Client.ClusterProb == nil || *cfg.Scenario.Client.ClusterProb != 0 {
		t.Error("expected explicit cluster_prob 0")
	}
	if cfg.Analyze.Bins != 30 {
		t.Errorf("expected 30 bins, got %d", cfg.Analyze.Bins)
	}
}

func TestLoadFileJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "scenario": {"preset": "write-heavy", "workers": 2},
  "analyze": {"mixes": ["90_10"]}
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Scenario.Preset != "write-heavy" || cfg.Scenario.Workers != 2 {
		t.Errorf("unexpected scenario %+v", cfg.Scenario)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	if _, err := LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFileUnsupportedFormat(t *testing.T) {
	path := writeConfig(t, "config.toml", "x = 1")
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestLoadFileInvalidYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", "scenario: [unclosed")
	if _, err := LoadFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestToScenarioConfig(t *testing.T) {
	prob := 0.5
	enabled := false
	cfg := &FileConfig{Scenario: ScenarioConfig{
		Name:     "custom",
		Mix:      "50/50",
		Duration: "15s",
		Workers:  3,
		OutDir:   "out",
		Warmup:   ClientWarmup{Enabled: &enabled, Concurrency: 4},
		Client: ClientConfig{
			Nodes:       []string{"http://a:8000"},
			Leader:      "http://a:8000",
			NumKeys:     50,
			ClusterProb: &prob,
			Users:       7,
			MinWait:     "1ms",
			MaxWait:     "3ms",
			Timeout:     "2s",
		},
	}}

	sc, err := cfg.ToScenarioConfig(scenario.DefaultConfig())
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}

	if sc.Name != "custom" || sc.Mix != mix.New(50, 50) {
		t.Errorf("unexpected name/mix %s/%s", sc.Name, sc.Mix)
	}
	if sc.Duration != 15*time.Second || sc.Workers != 3 || sc.OutDir != "out" {
		t.Errorf("unexpected run settings %+v", sc)
	}
	if sc.Warmup || sc.WarmupConcurrency != 4 {
		t.Errorf("unexpected warm-up settings %v/%d", sc.Warmup, sc.WarmupConcurrency)
	}
	c := sc.Client
	if c.NumKeys != 50 || c.ClusterProb != 0.5 || c.Users != 7 {
		t.Errorf("unexpected client settings %+v", c)
	}
	if c.MinWait != time.Millisecond || c.MaxWait != 3*time.Millisecond || c.Timeout != 2*time.Second {
		t.Errorf("unexpected client durations %+v", c)
	}
	if err := sc.Validate(); err != nil {
		t.Errorf("converted config should be valid: %v", err)
	}
}

func TestToScenarioConfigPreset(t *testing.T) {
	cfg := &FileConfig{Scenario: ScenarioConfig{Preset: "read-mostly"}}

	sc, err := cfg.ToScenarioConfig(scenario.DefaultConfig())
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	if sc.Name != "read-mostly" || sc.Mix != mix.New(10, 90) {
		t.Errorf("expected read-mostly preset, got %s %s", sc.Name, sc.Mix)
	}

	cfg.Scenario.Preset = "nope"
	if _, err := cfg.ToScenarioConfig(scenario.DefaultConfig()); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestToScenarioConfigInvalidDuration(t *testing.T) {
	for _, sc := range []ScenarioConfig{
		{Duration: "invalid"},
		{Client: ClientConfig{MinWait: "soon"}},
		{Client: ClientConfig{Timeout: "1 hour"}},
	} {
		cfg := &FileConfig{Scenario: sc}
		if _, err := cfg.ToScenarioConfig(scenario.DefaultConfig()); err == nil {
			t.Errorf("expected error for %+v", sc)
		}
	}
}

func TestToAnalyzeConfig(t *testing.T) {
	cfg := &FileConfig{Analyze: AnalyzeConfig{Dir: "logs", Mixes: []string{"1_99,90_10"}, Bins: 20}}

	ac, err := cfg.ToAnalyzeConfig(analyze.DefaultConfig())
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	if ac.Dir != "logs" || ac.Bins != 20 {
		t.Errorf("unexpected analyze config %+v", ac)
	}
	if len(ac.Mixes) != 2 || ac.Mixes[1] != mix.New(90, 10) {
		t.Errorf("unexpected mixes %v", ac.Mixes)
	}

	empty := &FileConfig{}
	ac, err = empty.ToAnalyzeConfig(analyze.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(ac.Mixes) != 4 || ac.Bins != 50 {
		t.Errorf("empty section should keep defaults, got %+v", ac)
	}
}

func TestValidate(t *testing.T) {
	bad := 1.5
	tests := []struct {
		name    string
		config  FileConfig
		wantErr bool
	}{
		{"valid", FileConfig{Scenario: ScenarioConfig{Workers: 2}}, false},
		{"negative workers", FileConfig{Scenario: ScenarioConfig{Workers: -1}}, true},
		{"negative concurrency", FileConfig{Scenario: ScenarioConfig{Warmup: ClientWarmup{Concurrency: -1}}}, true},
		{"negative keys", FileConfig{Scenario: ScenarioConfig{Client: ClientConfig{NumKeys: -1}}}, true},
		{"cluster prob", FileConfig{Scenario: ScenarioConfig{Client: ClientConfig{ClusterProb: &bad}}}, true},
		{"negative users", FileConfig{Scenario: ScenarioConfig{Client: ClientConfig{Users: -2}}}, true},
		{"negative rate", FileConfig{Scenario: ScenarioConfig{Client: ClientConfig{RatePerSec: -1}}}, true},
		{"bad mix", FileConfig{Scenario: ScenarioConfig{Mix: "fifty"}}, true},
		{"negative bins", FileConfig{Analyze: AnalyzeConfig{Bins: -1}}, true},
		{"bad analyze mix", FileConfig{Analyze: AnalyzeConfig{Mixes: []string{"x"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvNumKeys, "25")
	t.Setenv(EnvClusterProb, "0.3")
	t.Setenv(EnvWriteRatio, "10")
	t.Setenv(EnvReadRatio, "90")
	t.Setenv(EnvNodes, "http://a:1, http://b:2")
	t.Setenv(EnvLeaderHost, "http://a:1")
	t.Setenv(EnvOutDir, "/tmp/kvmix")

	sc := scenario.DefaultConfig()
	if err := ApplyEnv(NewEnv(), &sc); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if sc.Client.NumKeys != 25 || sc.Client.ClusterProb != 0.3 {
		t.Errorf("unexpected key settings %d/%f", sc.Client.NumKeys, sc.Client.ClusterProb)
	}
	if sc.Mix != mix.New(10, 90) {
		t.Errorf("expected 10_90, got %s", sc.Mix)
	}
	if len(sc.Client.Nodes) != 2 || sc.Client.Nodes[1] != "http://b:2" {
		t.Errorf("unexpected nodes %v", sc.Client.Nodes)
	}
	if sc.Client.Leader != "http://a:1" || sc.OutDir != "/tmp/kvmix" {
		t.Errorf("unexpected leader/out dir %s/%s", sc.Client.Leader, sc.OutDir)
	}

	ac := analyze.DefaultConfig()
	ApplyAnalyzeEnv(NewEnv(), &ac)
	if ac.Dir != "/tmp/kvmix" {
		t.Errorf("expected analyze dir from env, got %s", ac.Dir)
	}
}

func TestApplyEnvUnsetKeepsDefaults(t *testing.T) {
	for _, key := range []string{EnvNumKeys, EnvClusterProb, EnvWriteRatio, EnvReadRatio, EnvNodes, EnvLeaderHost, EnvOutDir} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	sc := scenario.DefaultConfig()
	if err := ApplyEnv(NewEnv(), &sc); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	def := scenario.DefaultConfig()
	if sc.Client.NumKeys != def.Client.NumKeys || sc.Mix != def.Mix || sc.OutDir != def.OutDir {
		t.Errorf("expected defaults to be kept, got %+v", sc)
	}
}

func TestApplyEnvPartialMix(t *testing.T) {
	t.Setenv(EnvWriteRatio, "5")
	t.Setenv(EnvReadRatio, "")
	os.Unsetenv(EnvReadRatio)

	sc := scenario.DefaultConfig()
	if err := ApplyEnv(NewEnv(), &sc); err != nil {
		t.Fatal(err)
	}
	if sc.Mix != mix.New(5, 99) {
		t.Errorf("expected 5_99, got %s", sc.Mix)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	tests := map[string]string{
		EnvNumKeys:     "lots",
		EnvClusterProb: "2",
	}
	for _, key := range []string{EnvNumKeys, EnvClusterProb, EnvWriteRatio, EnvReadRatio} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			sc := scenario.DefaultConfig()
			if err := ApplyEnv(NewEnv(), &sc); err == nil {
				t.Errorf("expected error for %s=%s", key, value)
			}
		})
	}
}

func TestApplyEnvRejectsNonNumeric(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{EnvClusterProb, "abc"},
		{EnvWriteRatio, "ten"},
		{EnvReadRatio, "9o"},
		{EnvNumKeys, "1e2x"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			for _, key := range []string{EnvNumKeys, EnvClusterProb, EnvWriteRatio, EnvReadRatio} {
				t.Setenv(key, "")
				os.Unsetenv(key)
			}
			t.Setenv(tt.key, tt.value)

			sc := scenario.DefaultConfig()
			before := sc
			err := ApplyEnv(NewEnv(), &sc)
			if err == nil {
				t.Fatalf("expected error for %s=%s, got mix=%s cluster_prob=%v", tt.key, tt.value, sc.Mix, sc.Client.ClusterProb)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error should name %s: %v", tt.key, err)
			}
			if sc.Mix != before.Mix || sc.Client.ClusterProb != before.Client.ClusterProb {
				t.Errorf("config changed on error: mix=%s cluster_prob=%v", sc.Mix, sc.Client.ClusterProb)
			}
		})
	}
}

func TestEnvMixParsesWhitespace(t *testing.T) {
	t.Setenv(EnvWriteRatio, " 10 ")
	t.Setenv(EnvReadRatio, "90")

	m, err := EnvMix(NewEnv(), mix.New(1, 99))
	if err != nil {
		t.Fatalf("EnvMix failed: %v", err)
	}
	if m != mix.New(10, 90) {
		t.Errorf("expected 10_90, got %s", m)
	}
}
