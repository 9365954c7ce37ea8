package scenario

import (
	"fmt"
	"time"

	"kvmix/internal/mix"
)

func preset(name, description string, m mix.Mix, duration time.Duration) Config {
	config := DefaultConfig()
	config.Name = name
	config.Description = description
	config.Mix = m
	config.Duration = duration
	return config
}

// ReadHeavyScenario は1%書き込みのシナリオを返す
func ReadHeavyScenario() Config {
	return preset("read-heavy", "1% writes, 99% reads", mix.New(1, 99), 60*time.Second)
}

// ReadMostlyScenario は10%書き込みのシナリオを返す
func ReadMostlyScenario() Config {
	return preset("read-mostly", "10% writes, 90% reads", mix.New(10, 90), 60*time.Second)
}

// BalancedScenario は書き込みと読み込みが半々のシナリオを返す
func BalancedScenario() Config {
	return preset("balanced", "50% writes, 50% reads", mix.New(50, 50), 60*time.Second)
}

// WriteHeavyScenario は90%書き込みのシナリオを返す
func WriteHeavyScenario() Config {
	return preset("write-heavy", "90% writes, 10% reads", mix.New(90, 10), 60*time.Second)
}

// QuickScenario は動作確認用の短いシナリオを返す
func QuickScenario() Config {
	config := preset("quick", "Quick balanced run for verification", mix.New(50, 50), 5*time.Second)
	config.Client.Users = 2
	return config
}

// GetPreset は名前からプリセットシナリオを取得する
func GetPreset(name string) (Config, bool) {
	presets := map[string]func() Config{
		"read-heavy":  ReadHeavyScenario,
		"read-mostly": ReadMostlyScenario,
		"balanced":    BalancedScenario,
		"write-heavy": WriteHeavyScenario,
		"quick":       QuickScenario,
	}

	if fn, ok := presets[name]; ok {
		return fn(), true
	}
	return Config{}, false
}

// ListPresets は利用可能なプリセット名を返す
func ListPresets() []string {
	return []string{"read-heavy", "read-mostly", "balanced", "write-heavy", "quick"}
}

// PresetForMix はMixに対応するプリセットを返す。無ければMixだけ差し替えたデフォルトを返す
func PresetForMix(m mix.Mix) Config {
	for _, name := range ListPresets() {
		config, _ := GetPreset(name)
		if name != "quick" && config.Mix == m {
			return config
		}
	}
	config := DefaultConfig()
	config.Name = m.ID()
	config.Description = fmt.Sprintf("%s write:read mix", m.Title())
	config.Mix = m
	return config
}
