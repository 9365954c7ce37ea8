package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"kvmix/internal/node"
)

func startServer(t *testing.T, config Config) (*Server, *httptest.Server) {
	t.Helper()
	s, err := NewServer(config)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if err := s.Node().Start(context.Background()); err != nil {
		t.Fatalf("node start failed: %v", err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = s.Node().Stop()
	})
	return s, srv
}

func fastConfig() Config {
	config := DefaultConfig()
	config.ReadDelay = 0
	config.WriteDelay = 0
	config.PeerTimeout = time.Second
	return config
}

func hostOf(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u.Host
}

func do(t *testing.T, method, target string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, target, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, target, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func decodeEntry(t *testing.T, body string) node.Entry {
	t.Helper()
	var e node.Entry
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		t.Fatalf("invalid entry %q: %v", body, err)
	}
	return e
}

func TestNewServerInvalidQuorum(t *testing.T) {
	config := fastConfig()
	config.R = 0
	if _, err := NewServer(config); err == nil {
		t.Error("expected error for R=0")
	}
}

func TestPutAndGet(t *testing.T) {
	config := fastConfig()
	config.Leader = true
	_, srv := startServer(t, config)

	before := time.Now().UnixNano()
	if code, _ := do(t, http.MethodPost, srv.URL+"/put?key=key1&value=42"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	code, body := do(t, http.MethodGet, srv.URL+"/get?key=key1")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	e := decodeEntry(t, body)
	if e.Value != "42" {
		t.Errorf("expected value 42, got %s", e.Value)
	}
	if e.Timestamp < before {
		t.Errorf("timestamp %d should be Unix ns after %d", e.Timestamp, before)
	}
}

func TestGetMissing(t *testing.T) {
	_, srv := startServer(t, fastConfig())

	if code, _ := do(t, http.MethodGet, srv.URL+"/get?key=nope"); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
	if code, _ := do(t, http.MethodGet, srv.URL+"/get"); code != http.StatusBadRequest {
		t.Errorf("expected 400 without key, got %d", code)
	}
}

func TestPutRequiresLeader(t *testing.T) {
	_, srv := startServer(t, fastConfig())

	code, body := do(t, http.MethodPost, srv.URL+"/put?key=key1&value=1")
	if code != http.StatusBadRequest {
		t.Errorf("expected 400 on follower, got %d", code)
	}
	if !strings.Contains(body, "leader") {
		t.Errorf("unexpected body %q", body)
	}
}

func TestPutRequiresKey(t *testing.T) {
	config := fastConfig()
	config.Leader = true
	_, srv := startServer(t, config)

	if code, _ := do(t, http.MethodPost, srv.URL+"/put?value=1"); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestReplicateKeepsNewest(t *testing.T) {
	s, srv := startServer(t, fastConfig())

	do(t, http.MethodPost, srv.URL+"/replicate?key=k&value=new&timestamp=200")
	do(t, http.MethodPost, srv.URL+"/replicate?key=k&value=old&timestamp=100")

	e, ok := s.Node().Get("k")
	if !ok || e.Value != "new" || e.Timestamp != 200 {
		t.Errorf("expected newest entry to win, got %+v", e)
	}

	if code, _ := do(t, http.MethodPost, srv.URL+"/replicate?key=k&value=x&timestamp=abc"); code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad timestamp, got %d", code)
	}
}

func TestGetReplica(t *testing.T) {
	s, srv := startServer(t, fastConfig())
	_ = s.Node().Put("k", node.Entry{Value: "v", Timestamp: 7})

	code, body := do(t, http.MethodGet, srv.URL+"/getReplica?key=k")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if e := decodeEntry(t, body); e.Timestamp != 7 {
		t.Errorf("unexpected entry %+v", e)
	}
	if code, _ := do(t, http.MethodGet, srv.URL+"/getReplica?key=missing"); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestAsyncReplication(t *testing.T) {
	follower, fsrv := startServer(t, fastConfig())

	config := fastConfig()
	config.Leader = true
	config.Peers = []string{hostOf(t, fsrv.URL)}
	_, lsrv := startServer(t, config)

	if code, _ := do(t, http.MethodPost, lsrv.URL+"/put?key=key1&value=9"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	deadline := time.After(2 * time.Second)
	for {
		if e, ok := follower.Node().Get("key1"); ok && e.Value == "9" {
			break
		}
		select {
		case <-deadline:
			t.Fatal("replica never received the write")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestSyncWriteQuorum(t *testing.T) {
	_, f1 := startServer(t, fastConfig())
	_, f2 := startServer(t, fastConfig())

	config := fastConfig()
	config.Leader = true
	config.N, config.W = 3, 3
	config.Peers = []string{hostOf(t, f1.URL), hostOf(t, f2.URL)}
	_, lsrv := startServer(t, config)

	if code, _ := do(t, http.MethodPost, lsrv.URL+"/put?key=key1&value=1"); code != http.StatusOK {
		t.Errorf("expected 200 with all replicas up, got %d", code)
	}

	// 1台落とすとW=3は満たせない
	f2.Close()
	if code, _ := do(t, http.MethodPost, lsrv.URL+"/put?key=key1&value=2"); code != http.StatusInternalServerError {
		t.Errorf("expected 500 when quorum is not met, got %d", code)
	}
}

func TestQuorumRead(t *testing.T) {
	follower, fsrv := startServer(t, fastConfig())

	config := fastConfig()
	config.Leader = true
	config.N, config.R = 2, 2
	config.Peers = []string{hostOf(t, fsrv.URL)}
	leader, lsrv := startServer(t, config)

	_ = leader.Node().Put("k", node.Entry{Value: "stale", Timestamp: 1})
	_ = follower.Node().Put("k", node.Entry{Value: "fresh", Timestamp: 2})

	code, body := do(t, http.MethodGet, lsrv.URL+"/get?key=k")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if e := decodeEntry(t, body); e.Value != "fresh" {
		t.Errorf("expected the newest replica value, got %+v", e)
	}

	if code, _ := do(t, http.MethodGet, lsrv.URL+"/get?key=none"); code != http.StatusNotFound {
		t.Errorf("expected 404 when no replica has the key, got %d", code)
	}
}

func TestConfigEndpoint(t *testing.T) {
	s, srv := startServer(t, fastConfig())

	code, body := do(t, http.MethodPost, srv.URL+"/config?N=5&R=2&W=3")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if strings.TrimSpace(body) != "reconfigured to N=5 W=3 R=2" {
		t.Errorf("unexpected body %q", body)
	}
	if n, r, w := s.Quorum().Get(); n != 5 || r != 2 || w != 3 {
		t.Errorf("expected 5/2/3, got %d/%d/%d", n, r, w)
	}

	// 数値でない値は無視される
	do(t, http.MethodPost, srv.URL+"/config?R=abc")
	if s.Quorum().R() != 2 {
		t.Error("non-numeric R should be ignored")
	}

	if code, _ := do(t, http.MethodPost, srv.URL+"/config?W=-1"); code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative W, got %d", code)
	}
}

func TestHealth(t *testing.T) {
	config := fastConfig()
	config.ID = "kv1"
	config.Leader = true
	_, srv := startServer(t, config)

	code, body := do(t, http.MethodGet, srv.URL+"/health")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var h HealthResponse
	if err := json.Unmarshal([]byte(body), &h); err != nil {
		t.Fatal(err)
	}
	if h.Status != "ok" || h.ID != "kv1" || !h.Leader || h.R != 1 {
		t.Errorf("unexpected health %+v", h)
	}
}

func TestStartStopsWithContext(t *testing.T) {
	config := fastConfig()
	config.Addr = "127.0.0.1:0"
	s, err := NewServer(config)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	if s.Node().Status() != node.StatusStopped {
		t.Error("expected node to be stopped after Start returns")
	}
}
