package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kvmix/internal/api"
)

var serveFlags struct {
	port       int
	id         string
	peers      string
	leader     bool
	n, r, w    int
	readDelay  time.Duration
	writeDelay time.Duration
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a reference KV node with leader replication and N/R/W quorums",
	Example: `  # leader replicating to two followers, synchronous writes to all three
  kvmix serve --port 8000 --leader --peers kv2:8000,kv3:8000 --n 3 --w 3

  # follower
  kvmix serve --port 8000 --id kv2`,
	RunE: runServe,
}

func init() {
	def := api.DefaultConfig()
	f := serveCmd.Flags()
	f.IntVar(&serveFlags.port, "port", 8000, "待ち受けポート")
	f.StringVar(&serveFlags.id, "id", "", "ログに出すノードID (デフォルト: kv:PORT)")
	f.StringVar(&serveFlags.peers, "peers", "", "複製先 (カンマ区切りの host:port)")
	f.BoolVar(&serveFlags.leader, "leader", false, "リーダーとして書き込みを受け付ける")
	f.IntVar(&serveFlags.n, "n", def.N, "クラスタサイズ")
	f.IntVar(&serveFlags.r, "r", def.R, "読み込みクォーラム")
	f.IntVar(&serveFlags.w, "w", def.W, "書き込みクォーラム")
	f.DurationVar(&serveFlags.readDelay, "read-delay", def.ReadDelay, "読み込みごとの遅延")
	f.DurationVar(&serveFlags.writeDelay, "write-delay", def.WriteDelay, "書き込みごとの遅延")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := api.DefaultConfig()
	cfg.Addr = fmt.Sprintf(":%d", serveFlags.port)
	cfg.ID = serveFlags.id
	if cfg.ID == "" {
		cfg.ID = fmt.Sprintf("kv:%d", serveFlags.port)
	}
	if serveFlags.peers != "" {
		cfg.Peers = strings.Split(serveFlags.peers, ",")
	}
	cfg.Leader = serveFlags.leader
	cfg.N, cfg.R, cfg.W = serveFlags.n, serveFlags.r, serveFlags.w
	cfg.ReadDelay = serveFlags.readDelay
	cfg.WriteDelay = serveFlags.writeDelay

	server, err := api.NewServer(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	return server.Start(ctx)
}
