package client

import (
	"errors"
	"fmt"
	"time"
)

// DefaultNodes は既定の読み込み先ノード
var DefaultNodes = []string{
	"http://kv1:8000",
	"http://kv2:8000",
	"http://kv3:8000",
	"http://kv4:8000",
	"http://kv5:8000",
}

// Config はClientの設定
type Config struct {
	Nodes       []string      // readを送るノード
	Leader      string        // writeを送るリーダー
	NumKeys     int           // キー空間の大きさ（key0〜key{NumKeys-1}）
	ClusterProb float64       // 同じキーに留まる確率
	WriteWeight int           // writeタスクの重み
	ReadWeight  int           // readタスクの重み
	Users       int           // 同時に動かすユーザー数
	MinWait     time.Duration // タスク間の待ち時間（下限）
	MaxWait     time.Duration // タスク間の待ち時間（上限）
	RatePerSec  float64       // ユーザーごとの上限レート（0で無制限）
	Timeout     time.Duration // HTTPタイムアウト
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Nodes:       append([]string(nil), DefaultNodes...),
		Leader:      "http://kv1:8000",
		NumKeys:     100,
		ClusterProb: 0.8,
		WriteWeight: 1,
		ReadWeight:  99,
		Users:       10,
		MinWait:     10 * time.Millisecond,
		MaxWait:     50 * time.Millisecond,
		RatePerSec:  0,
		Timeout:     5 * time.Second,
	}
}

// Validate は設定を検証する
func (c Config) Validate() error {
	if len(c.Nodes) == 0 {
		return errors.New("at least one node is required")
	}
	if c.Leader == "" {
		return errors.New("leader is required")
	}
	if c.NumKeys <= 0 {
		return fmt.Errorf("num_keys must be positive, got %d", c.NumKeys)
	}
	if c.ClusterProb < 0 || c.ClusterProb > 1 {
		return fmt.Errorf("cluster_prob must be between 0 and 1, got %f", c.ClusterProb)
	}
	if c.WriteWeight < 0 || c.ReadWeight < 0 || c.WriteWeight+c.ReadWeight == 0 {
		return fmt.Errorf("invalid task weights %d:%d", c.WriteWeight, c.ReadWeight)
	}
	if c.Users <= 0 {
		return fmt.Errorf("users must be positive, got %d", c.Users)
	}
	if c.MinWait < 0 || c.MaxWait < c.MinWait {
		return fmt.Errorf("invalid wait range %v..%v", c.MinWait, c.MaxWait)
	}
	if c.RatePerSec < 0 {
		return fmt.Errorf("rate must be non-negative, got %f", c.RatePerSec)
	}
	return nil
}
