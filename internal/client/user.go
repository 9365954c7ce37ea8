package client

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"kvmix/internal/runlog"
)

// readReply は/getの応答ボディ
type readReply struct {
	Value     string `json:"value"`
	Timestamp *int64 `json:"timestamp"` // Unix ns
}

// user はシミュレートされた1ユーザー
// 書き込み時刻はWorker単位で共有し、他のユーザーの書き込みもstale判定に使う
type user struct {
	id         int
	config     Config
	transport  Transport
	worker     *Worker
	rng        *rand.Rand
	limiter    *rate.Limiter
	currentKey int
}

func newUser(id int, config Config, t Transport, w *Worker) *user {
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(id)))
	u := &user{
		id:         id,
		config:     config,
		transport:  t,
		worker:     w,
		rng:        rng,
		currentKey: rng.IntN(config.NumKeys),
	}
	if config.RatePerSec > 0 {
		u.limiter = rate.NewLimiter(rate.Limit(config.RatePerSec), 1)
	}
	return u
}

// run はctxがキャンセルされるまでタスクを繰り返す
func (u *user) run(ctx context.Context) error {
	for {
		if u.limiter != nil {
			if err := u.limiter.Wait(ctx); err != nil {
				return nil
			}
		}
		if ctx.Err() != nil {
			return nil
		}

		if u.pickWrite() {
			u.write(ctx)
		} else {
			u.read(ctx)
		}

		timer := time.NewTimer(u.waitTime())
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// nextKey は1-ClusterProbの確率でランダムなキーに移り、それ以外は同じキーを返す
func (u *user) nextKey() string {
	if u.rng.Float64() > u.config.ClusterProb {
		u.currentKey = u.rng.IntN(u.config.NumKeys)
	}
	return "key" + strconv.Itoa(u.currentKey)
}

// pickWrite は重みに従ってwriteタスクを選ぶかどうかを返す
func (u *user) pickWrite() bool {
	return u.rng.IntN(u.config.WriteWeight+u.config.ReadWeight) < u.config.WriteWeight
}

func (u *user) waitTime() time.Duration {
	span := u.config.MaxWait - u.config.MinWait
	if span <= 0 {
		return u.config.MinWait
	}
	return u.config.MinWait + time.Duration(u.rng.Int64N(int64(span)+1))
}

func (u *user) write(ctx context.Context) {
	key := u.nextKey()
	ts := nowMs()
	u.worker.setVersion(key, ts)

	start := time.Now()
	resp, err := u.transport.Put(ctx, u.config.Leader, key, strconv.FormatInt(int64(ts), 10))
	latency := time.Since(start)
	if ctx.Err() != nil {
		// 停止中に打ち切られたリクエストは記録しない
		return
	}

	ok := err == nil && resp.Status == http.StatusOK
	u.worker.record(http.MethodPost, runlog.EndpointPut, ok, latency, len(resp.Body))
}

func (u *user) read(ctx context.Context) {
	key := u.nextKey()
	readTs := nowMs()
	node := u.config.Nodes[u.rng.IntN(len(u.config.Nodes))]

	start := time.Now()
	resp, err := u.transport.Get(ctx, node, key)
	latency := time.Since(start)
	if ctx.Err() != nil {
		return
	}

	ok := false
	switch {
	case err != nil:
	case resp.Status == http.StatusOK:
		var reply readReply
		if json.Unmarshal(resp.Body, &reply) != nil || reply.Timestamp == nil {
			break
		}
		nodeTs := float64(*reply.Timestamp) / 1e6
		if v, seen := u.worker.version(key); seen && nodeTs < v {
			u.worker.metrics.RecordStale()
		}
		u.worker.addInterval(readTs - nodeTs)
		ok = true
	case resp.Status == http.StatusNotFound:
		// まだ書かれていないキーは正常なミスとして扱う
		ok = true
	}

	u.worker.record(http.MethodGet, runlog.EndpointGet, ok, latency, len(resp.Body))
}
