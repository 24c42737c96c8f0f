package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hitomi/internal/camera"
	"hitomi/internal/config"
)

// serverTestEnv はサーバーエンドポイントのテスト一式
type serverTestEnv struct {
	ts  *httptest.Server
	srv *Server
	dev *camera.MockDevice
}

// newServerTestEnv はモックデバイスで配線されたテスト用サーバーを構築する
func newServerTestEnv(t *testing.T) *serverTestEnv {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:        "127.0.0.1",
			Port:        8080,
			ReadTimeout: 5 * time.Second,
		},
		Stream:      config.StreamConfig{Width: 640, Height: 480, Framerate: 30, Quality: 80},
		Enabled:     true,
		HighQuality: true,
	}

	dev := camera.NewMockDevice([]camera.Resolution{
		{Width: 640, Height: 480},
		{Width: 1280, Height: 720},
	})

	srv := New(cfg, dev)
	ts := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		srv.scheduler.Disable()
		ts.Close()
	})

	return &serverTestEnv{ts: ts, srv: srv, dev: dev}
}

// getJSON はGETリクエストを送りJSONレスポンスをデコードする
func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("リクエストに失敗: %v", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	return resp.StatusCode
}

func TestHandleHealth(t *testing.T) {
	env := newServerTestEnv(t)

	var health HealthResponse
	status := getJSON(t, env.ts.URL+"/health", &health)

	if status != http.StatusOK {
		t.Errorf("ステータスコードが一致しません: got %d", status)
	}
	if health.Status != "healthy" {
		t.Errorf("ヘルス状態が一致しません: %s", health.Status)
	}
	if health.Timestamp.IsZero() {
		t.Error("タイムスタンプが設定されていません")
	}
}

func TestHandleStatus(t *testing.T) {
	env := newServerTestEnv(t)

	// キャプチャ無効時もステータス自体は200
	var before StatusResponse
	if status := getJSON(t, env.ts.URL+"/api/status", &before); status != http.StatusOK {
		t.Errorf("ステータスコードが一致しません: got %d", status)
	}
	if before.Capture.Enabled {
		t.Error("キャプチャが有効と報告されています")
	}

	if err := env.srv.scheduler.Enable(context.Background()); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}

	var after StatusResponse
	if status := getJSON(t, env.ts.URL+"/api/status", &after); status != http.StatusOK {
		t.Errorf("ステータスコードが一致しません: got %d", status)
	}
	if !after.Capture.Enabled {
		t.Error("キャプチャが無効と報告されています")
	}
	if after.Capture.Mode == "" {
		t.Error("動作モードが報告されていません")
	}
	if after.Capture.Quality != 80 {
		t.Errorf("品質が一致しません: %d", after.Capture.Quality)
	}
	if after.Capture.Clients != 0 {
		t.Errorf("クライアント数が一致しません: %d", after.Capture.Clients)
	}
	if after.Server.Host != "127.0.0.1" || after.Server.Port != 8080 {
		t.Errorf("サーバー情報が一致しません: %+v", after.Server)
	}
}

func TestHandleModes(t *testing.T) {
	env := newServerTestEnv(t)

	// キャプチャ開始前は503
	var errResp ErrorResponse
	if status := getJSON(t, env.ts.URL+"/api/modes", &errResp); status != http.StatusServiceUnavailable {
		t.Errorf("ステータスコードが一致しません: got %d", status)
	}
	if errResp.Error != "capture_not_started" {
		t.Errorf("エラー種別が一致しません: %s", errResp.Error)
	}

	if err := env.srv.scheduler.Enable(context.Background()); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}

	var result struct {
		Modes []ModeInfo `json:"modes"`
	}
	if status := getJSON(t, env.ts.URL+"/api/modes", &result); status != http.StatusOK {
		t.Errorf("ステータスコードが一致しません: got %d", status)
	}
	if len(result.Modes) == 0 {
		t.Fatal("モード一覧が空です")
	}
	for _, m := range result.Modes {
		if m.Width <= 0 || m.Height <= 0 || m.Framerate <= 0 {
			t.Errorf("無効なモード: %+v", m)
		}
	}
}

func TestHandleSnapshot(t *testing.T) {
	env := newServerTestEnv(t)

	// キャプチャ開始前は503
	var errResp ErrorResponse
	if status := getJSON(t, env.ts.URL+"/api/snapshot", &errResp); status != http.StatusServiceUnavailable {
		t.Errorf("ステータスコードが一致しません: got %d", status)
	}

	if err := env.srv.scheduler.Enable(context.Background()); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}

	// 視聴者がいない間はキャプチャが一時停止するため、フレームを
	// 得るにはストリームクライアントを1つ接続しておく
	streamResp, err := http.Get(env.ts.URL + "/stream")
	if err != nil {
		t.Fatalf("ストリーム接続に失敗: %v", err)
	}
	defer streamResp.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.srv.scheduler.Latest() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if env.srv.scheduler.Latest() == nil {
		t.Fatal("フレームが取得されませんでした")
	}

	resp, err := http.Get(env.ts.URL + "/api/snapshot")
	if err != nil {
		t.Fatalf("リクエストに失敗: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ステータスコードが一致しません: got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Typeが一致しません: %s", ct)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ペイロードの読み取りに失敗: %v", err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Error("ペイロードがJPEGではありません")
	}
}

// TestServerStoreBridge は設定ストア経由の有効/無効切り替えが
// 起動時の購読登録でサーバーに反映されることを確認する
func TestServerStoreBridge(t *testing.T) {
	env := newServerTestEnv(t)

	// Startを経由しないテストでは購読とキャプチャ開始を個別に行う
	env.srv.bridge.Register(context.Background())
	if err := env.srv.scheduler.Enable(context.Background()); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}

	env.srv.Store().SetEnabled(false)
	if env.srv.scheduler.Available() {
		t.Error("ストア経由の無効化が反映されていません")
	}
	if env.dev.IsOpened() {
		t.Error("無効化後もデバイスがオープンされています")
	}

	env.srv.Store().SetEnabled(true)
	if !env.srv.scheduler.Available() {
		t.Error("ストア経由の有効化が反映されていません")
	}
}
