package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hitomi/internal/camera"
	"hitomi/internal/capture"
	"hitomi/internal/config"
	"hitomi/internal/stream"

	"github.com/gin-gonic/gin"
)

// Server はHTTPサーバーとキャプチャ系コンポーネントを管理する構造体
type Server struct {
	config      *config.Config
	store       *config.Store
	scheduler   *capture.Scheduler
	distributor *stream.Distributor
	bridge      *capture.Bridge
	engine      *gin.Engine
	httpServer  *http.Server
}

// New は新しいServerインスタンスを作成し、コンポーネントを配線する
func New(cfg *config.Config, device camera.Device) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	store := config.NewStore(cfg)
	scheduler := capture.NewScheduler(device, store)
	distributor := stream.NewDistributor(scheduler)

	// 配信側の接続カウントがスケジューラの一時停止条件になる
	scheduler.SetPausePredicate(distributor.Idle)

	s := &Server{
		config:      cfg,
		store:       store,
		scheduler:   scheduler,
		distributor: distributor,
		bridge:      capture.NewBridge(scheduler, store),
		engine:      engine,
		httpServer: &http.Server{
			Addr:         cfg.ServerAddress(),
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	s.setupRoutes()
	return s
}

// Store は設定ストアを返す（外部設定APIとの接続点）
func (s *Server) Store() *config.Store {
	return s.store
}

// Handler はルーティング済みのHTTPハンドラを返す
func (s *Server) Handler() http.Handler {
	return s.engine
}

// setupRoutes はHTTPルートを設定する
func (s *Server) setupRoutes() {
	// ヘルスチェックエンドポイント
	s.engine.GET("/health", s.handleHealth)

	// ストリーミングエンドポイント
	s.engine.GET("/stream", s.distributor.Serve)

	// APIエンドポイント
	api := s.engine.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/modes", s.handleModes)
	api.GET("/snapshot", s.handleSnapshot)
}

// Start はキャプチャとサーバーを起動し、停止シグナルを待つ
func (s *Server) Start(ctx context.Context) error {
	// 設定変更の購読を開始してから初期状態を適用する
	s.bridge.Register(ctx)
	if s.store.Enabled() {
		if err := s.scheduler.Enable(ctx); err != nil {
			// カメラがなくてもサーバーは起動する。ストリームは503を返す
			log.Printf("キャプチャの有効化に失敗しました: %v", err)
		}
	}

	// シャットダウン用のチャンネル
	shutdownCh := make(chan error, 1)

	// サーバーを別ゴルーチンで起動
	go func() {
		log.Printf("HTTPサーバーを起動しています: %s", s.config.ServerAddress())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			shutdownCh <- fmt.Errorf("サーバーの起動に失敗: %w", err)
		}
	}()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// コンテキストかシグナルを待つ
	select {
	case <-ctx.Done():
		log.Println("コンテキストがキャンセルされました")
	case sig := <-sigCh:
		log.Printf("シグナルを受信しました: %v", sig)
	case err := <-shutdownCh:
		s.scheduler.Disable()
		return err
	}

	// グレースフルシャットダウン
	return s.Shutdown()
}

// Shutdown はサーバーをグレースフルにシャットダウンする
func (s *Server) Shutdown() error {
	log.Println("サーバーをシャットダウンしています...")

	s.scheduler.Disable()

	// 5秒のタイムアウトを設定
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}

	log.Println("サーバーが正常にシャットダウンされました")
	return nil
}
