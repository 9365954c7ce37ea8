package cluster

import (
	"fmt"
	"sync"
)

// Quorum はN/R/Wの設定を保持する。実行中に変更できる
type Quorum struct {
	mu      sync.RWMutex
	n, r, w int
}

// NewQuorum は新しいQuorumを作成する
func NewQuorum(n, r, w int) (*Quorum, error) {
	q := &Quorum{}
	if err := q.Set(n, r, w); err != nil {
		return nil, err
	}
	return q, nil
}

// Get は現在のN/R/Wを返す
func (q *Quorum) Get() (n, r, w int) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.n, q.r, q.w
}

// R は読み込みクォーラムを返す
func (q *Quorum) R() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.r
}

// W は書き込みクォーラムを返す
func (q *Quorum) W() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.w
}

// Set はN/R/Wをまとめて変更する
func (q *Quorum) Set(n, r, w int) error {
	if n < 1 || r < 1 || w < 1 {
		return fmt.Errorf("quorum values must be positive: N=%d R=%d W=%d", n, r, w)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.n, q.r, q.w = n, r, w
	return nil
}

// Update は0以外の値だけを変更し、変更後の値を返す
func (q *Quorum) Update(n, r, w int) (int, int, int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	nn, rr, ww := q.n, q.r, q.w
	if n != 0 {
		nn = n
	}
	if r != 0 {
		rr = r
	}
	if w != 0 {
		ww = w
	}
	if nn < 1 || rr < 1 || ww < 1 {
		return q.n, q.r, q.w, fmt.Errorf("quorum values must be positive: N=%d R=%d W=%d", nn, rr, ww)
	}
	q.n, q.r, q.w = nn, rr, ww
	return nn, rr, ww, nil
}

// String はN/R/Wを表示用に返す
func (q *Quorum) String() string {
	n, r, w := q.Get()
	return fmt.Sprintf("N=%d R=%d W=%d", n, r, w)
}
