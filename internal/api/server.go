package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"kvmix/internal/cluster"
	"kvmix/internal/logger"
	"kvmix/internal/node"
)

// Config はKVノードサーバーの設定
type Config struct {
	Addr        string        // 待ち受けアドレス
	ID          string        // ログに出すノードID
	Leader      bool          // 書き込みを受け付けるか
	Peers       []string      // 複製先（host:port）
	N, R, W     int           // クォーラム設定
	ReadDelay   time.Duration // 読み込み遅延
	WriteDelay  time.Duration // 書き込み遅延
	PeerTimeout time.Duration // ピアRPCのタイムアウト
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	nc := node.DefaultConfig()
	return Config{
		Addr:        ":8000",
		ID:          "kv",
		N:           1,
		R:           1,
		W:           1,
		ReadDelay:   nc.ReadDelay,
		WriteDelay:  nc.WriteDelay,
		PeerTimeout: 2 * time.Second,
	}
}

// Server はKVノードのHTTPサーバー
type Server struct {
	config Config
	node   *node.Node
	peers  *cluster.Peers
	quorum *cluster.Quorum
	router chi.Router
	server *http.Server
}

// NewServer は新しいサーバーを作成する
func NewServer(config Config) (*Server, error) {
	quorum, err := cluster.NewQuorum(config.N, config.R, config.W)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config: config,
		node:   node.New(config.ID, node.Config{ReadDelay: config.ReadDelay, WriteDelay: config.WriteDelay}),
		peers:  cluster.NewPeers(config.Peers, config.PeerTimeout),
		quorum: quorum,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.HandleFunc("/put", s.handlePut)
	r.HandleFunc("/replicate", s.handleReplicate)
	r.Get("/get", s.handleGet)
	r.Get("/getReplica", s.handleGetReplica)
	r.HandleFunc("/config", s.handleConfig)
	r.Get("/health", s.handleHealth)
	return r
}

// Handler はルーターを返す
func (s *Server) Handler() http.Handler {
	return s.router
}

// Node はバックエンドのノードを返す
func (s *Server) Node() *node.Node {
	return s.node
}

// Quorum は現在のクォーラム設定を返す
func (s *Server) Quorum() *cluster.Quorum {
	return s.quorum
}

// Start はノードを起動してHTTPサーバーを開始する。ctxがキャンセルされると停止する
func (s *Server) Start(ctx context.Context) error {
	if err := s.node.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = s.node.Stop() }()

	s.server = &http.Server{
		Addr:    s.config.Addr,
		Handler: s.router,
	}

	logger.Info(s.config.ID, "Starting KV service on %s (leader=%v %s peers=%v)",
		s.config.Addr, s.config.Leader, s.quorum, s.peers.Addrs())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handlePut はクライアントからの書き込みを処理する（リーダーのみ）
func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	val := r.URL.Query().Get("value")
	if key == "" {
		http.Error(w, "key required", http.StatusBadRequest)
		return
	}
	if !s.config.Leader {
		http.Error(w, "writes only allowed on leader", http.StatusBadRequest)
		return
	}

	e := node.Entry{Value: val, Timestamp: time.Now().UnixNano()}
	if err := s.node.Put(key, e); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	need := s.quorum.W()
	if need == 1 {
		s.peers.ReplicateAsync(key, e)
		w.WriteHeader(http.StatusOK)
		return
	}

	acks := 1 + s.peers.Replicate(r.Context(), key, e)
	if acks < need {
		logger.Warn(s.config.ID, "Write quorum not met for %s (%d/%d)", key, acks, need)
		http.Error(w, "write quorum not met", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleReplicate はリーダーからの複製を処理する。新しい場合だけ上書きする
func (s *Server) handleReplicate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := q.Get("key")
	ts, err := strconv.ParseInt(q.Get("timestamp"), 10, 64)
	if key == "" || err != nil {
		http.Error(w, "invalid replicate args", http.StatusBadRequest)
		return
	}

	if _, err := s.node.PutIfNewer(key, node.Entry{Value: q.Get("value"), Timestamp: ts}); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleGet はクライアントからの読み込みを処理する
// R>1 の場合はローカルとピアから読み、最初のR件のうち最新を返す
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "key required", http.StatusBadRequest)
		return
	}

	need := s.quorum.R()
	if need == 1 {
		e, ok := s.node.Get(key)
		if !ok {
			http.NotFound(w, r)
			return
		}
		s.writeJSON(w, e)
		return
	}

	local := func(context.Context) (node.Entry, bool) {
		return s.node.Get(key)
	}
	fetches := append([]cluster.Fetch{local}, s.peers.Fetchers(key)...)
	best, ok := cluster.Newest(cluster.Gather(r.Context(), need, fetches...))
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, best)
}

// handleGetReplica はローカルのエントリをそのまま返す
func (s *Server) handleGetReplica(w http.ResponseWriter, r *http.Request) {
	e, ok := s.node.Get(r.URL.Query().Get("key"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, e)
}

// handleConfig はN/R/Wを変更する。数値でない値は無視する
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	atoi := func(name string) int {
		v, err := strconv.Atoi(q.Get(name))
		if err != nil {
			return 0
		}
		return v
	}

	n, rr, ww, err := s.quorum.Update(atoi("N"), atoi("R"), atoi("W"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.Info(s.config.ID, "Reconfigured to N=%d W=%d R=%d", n, ww, rr)
	fmt.Fprintf(w, "reconfigured to N=%d W=%d R=%d\n", n, ww, rr)
}

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
	Leader bool   `json:"leader"`
	Keys   int    `json:"keys"`
	N      int    `json:"n"`
	R      int    `json:"r"`
	W      int    `json:"w"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, rr, ww := s.quorum.Get()
	status := "ok"
	if s.node.Status() != node.StatusRunning {
		status = s.node.Status().String()
	}
	s.writeJSON(w, HealthResponse{
		Status: status,
		ID:     s.config.ID,
		Leader: s.config.Leader,
		Keys:   s.node.Size(),
		N:      n,
		R:      rr,
		W:      ww,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(s.config.ID, "Failed to encode JSON: %v", err)
	}
}
