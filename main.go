package main

import (
	"context"
	"log"
	"os"

	"hitomi/internal/camera"
	"hitomi/internal/config"
	"hitomi/internal/server"
)

func main() {
	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// カメラデバイスを決定する
	device, err := resolveDevice(context.Background(), cfg)
	if err != nil {
		log.Fatalf("カメラデバイスの決定に失敗しました: %v", err)
	}

	// サーバーを作成
	srv := server.New(cfg, device)

	// サーバーを起動
	if err := srv.Start(context.Background()); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
		os.Exit(1)
	}
}

// resolveDevice は設定されたデバイスパス、なければ自動検出で
// カメラデバイスを決定する
func resolveDevice(ctx context.Context, cfg *config.Config) (camera.Device, error) {
	path := cfg.Camera.Device
	if path == "" {
		discovery := camera.NewLinuxDiscovery()
		devices, err := discovery.ScanDevices(ctx)
		if err == nil && len(devices) > 0 {
			path = devices[0]
			log.Printf("カメラを自動検出しました: %s (%s)", path, discovery.DeviceName(ctx, path))
		} else {
			// デバイスが見つからなくても起動はする。有効化時にエラーになる
			path = "/dev/video0"
			log.Printf("カメラが見つからないため既定のデバイスを使用します: %s", path)
		}
	}
	return camera.NewDevice(path), nil
}
