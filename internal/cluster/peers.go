package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"kvmix/internal/logger"
	"kvmix/internal/node"
)

// Fetch は1つの読み込み元からエントリを取得する
type Fetch func(ctx context.Context) (node.Entry, bool)

// Peers はリーダー以外のレプリカへのRPCをまとめる
type Peers struct {
	addrs   []string
	client  *http.Client
	timeout time.Duration
}

// NewPeers は新しいPeersを作成する
// スキームの無いアドレス（host:port）にはhttp://を付ける
func NewPeers(addrs []string, timeout time.Duration) *Peers {
	normalized := make([]string, 0, len(addrs))
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if !strings.Contains(a, "://") {
			a = "http://" + a
		}
		normalized = append(normalized, strings.TrimRight(a, "/"))
	}
	return &Peers{
		addrs:   normalized,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Addrs はピアのアドレスを返す
func (p *Peers) Addrs() []string {
	return append([]string(nil), p.addrs...)
}

// Size はピア数を返す
func (p *Peers) Size() int {
	return len(p.addrs)
}

// Replicate は全ピアに同期的に複製し、成功したピア数を返す
func (p *Peers) Replicate(ctx context.Context, key string, e node.Entry) int {
	var acks atomic.Int32
	var g errgroup.Group
	for _, addr := range p.addrs {
		g.Go(func() error {
			if err := p.replicateTo(ctx, addr, key, e); err != nil {
				logger.Debug("replicate", "%s: %v", addr, err)
				return nil
			}
			acks.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(acks.Load())
}

// ReplicateAsync は応答を待たずに全ピアへ複製する
func (p *Peers) ReplicateAsync(key string, e node.Entry) {
	for _, addr := range p.addrs {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
			defer cancel()
			if err := p.replicateTo(ctx, addr, key, e); err != nil {
				logger.Debug("replicate", "%s: %v", addr, err)
			}
		}()
	}
}

func (p *Peers) replicateTo(ctx context.Context, addr, key string, e node.Entry) error {
	q := url.Values{
		"key":       {key},
		"value":     {e.Value},
		"timestamp": {strconv.FormatInt(e.Timestamp, 10)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr+"/replicate?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Fetchers は各ピアの/getReplicaを読むFetchを返す
func (p *Peers) Fetchers(key string) []Fetch {
	fetches := make([]Fetch, 0, len(p.addrs))
	for _, addr := range p.addrs {
		fetches = append(fetches, func(ctx context.Context) (node.Entry, bool) {
			return p.readReplica(ctx, addr, key)
		})
	}
	return fetches
}

func (p *Peers) readReplica(ctx context.Context, addr, key string) (node.Entry, bool) {
	q := url.Values{"key": {key}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr+"/getReplica?"+q.Encode(), nil)
	if err != nil {
		return node.Entry{}, false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return node.Entry{}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return node.Entry{}, false
	}

	var e node.Entry
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		return node.Entry{}, false
	}
	return e, true
}

// ReadReplicas はピアから最大need件の読み込み成功を集める
func (p *Peers) ReadReplicas(ctx context.Context, key string, need int) []node.Entry {
	return Gather(ctx, need, p.Fetchers(key)...)
}

// Gather は全てのFetchを並行に実行し、先に成功したneed件を返す
// need件に達した時点で残りはキャンセルされる
func Gather(ctx context.Context, need int, fetches ...Fetch) []node.Entry {
	if need < 1 {
		need = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan node.Entry, len(fetches))
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range fetches {
		g.Go(func() error {
			if e, ok := f(gctx); ok {
				results <- e
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	var got []node.Entry
	for e := range results {
		got = append(got, e)
		if len(got) >= need {
			break
		}
	}
	return got
}

// Newest は最も新しいタイムスタンプのエントリを返す
func Newest(entries []node.Entry) (node.Entry, bool) {
	if len(entries) == 0 {
		return node.Entry{}, false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.Timestamp > best.Timestamp {
			best = e
		}
	}
	return best, true
}
