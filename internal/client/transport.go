package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Response はKVノードからの応答
type Response struct {
	Status int
	Body   []byte
}

// Transport はKVノードへのリクエストを抽象化する
type Transport interface {
	Get(ctx context.Context, node, key string) (Response, error)
	Put(ctx context.Context, leader, key, value string) (Response, error)
}

// HTTP はnet/httpによるTransport
type HTTP struct {
	client *http.Client
}

// NewHTTP は新しいHTTPトランスポートを作成する
func NewHTTP(timeout time.Duration) *HTTP {
	return &HTTP{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        256,
				MaxIdleConnsPerHost: 64,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Get は GET {node}/get?key=… を送る
func (h *HTTP) Get(ctx context.Context, node, key string) (Response, error) {
	q := url.Values{"key": {key}}
	return h.do(ctx, http.MethodGet, node+"/get?"+q.Encode())
}

// Put は POST {leader}/put?key=…&value=… を送る
func (h *HTTP) Put(ctx context.Context, leader, key, value string) (Response, error) {
	q := url.Values{"key": {key}, "value": {value}}
	return h.do(ctx, http.MethodPost, leader+"/put?"+q.Encode())
}

func (h *HTTP) do(ctx context.Context, method, target string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{Status: resp.StatusCode}, fmt.Errorf("read body: %w", err)
	}
	return Response{Status: resp.StatusCode, Body: body}, nil
}
