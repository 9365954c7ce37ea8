package client

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"

	"kvmix/internal/logger"
	"kvmix/internal/worker"
)

// Warmup は key0〜key{numKeys-1} に値0を書き込み、失敗数を返す
// 書き込みは最大concurrency並列でワーカープールに流す
func Warmup(ctx context.Context, t Transport, leader string, numKeys, concurrency int) (int, error) {
	logger.Info("warmup", "Inserting %d keys into %s", numKeys, leader)

	pool := worker.NewPool(concurrency)
	pool.Start(ctx)

	var failures atomic.Int64
	submitted := 0
	for i := range numKeys {
		key := "key" + strconv.Itoa(i)
		ok := pool.SubmitWait(ctx, func() {
			resp, err := t.Put(ctx, leader, key, "0")
			if err != nil || resp.Status != http.StatusOK {
				failures.Add(1)
			}
		})
		if !ok {
			break
		}
		submitted++
	}
	pool.Close()

	failed := int(failures.Load()) + numKeys - submitted
	if err := ctx.Err(); err != nil {
		return failed, err
	}
	if failed > 0 {
		logger.Warn("warmup", "%d of %d warm-up writes failed", failed, numKeys)
	} else {
		logger.Success("warmup", "Warm-up complete")
	}
	return failed, nil
}
