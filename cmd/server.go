// Package main はHitomiサーバーコマンドの実装です
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"hitomi/internal/camera"
	"hitomi/internal/config"
	"hitomi/internal/server"
)

func main() {
	// コマンドラインオプション
	var (
		host   = flag.String("host", "", "サーバーのホスト (デフォルト: 0.0.0.0)")
		port   = flag.Int("port", 0, "サーバーのポート (デフォルト: 8080)")
		device = flag.String("device", "", "カメラデバイスパス (デフォルト: 自動検出)")
		help   = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("Hitomi")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  server [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *device != "" {
		cfg.Camera.Device = *device
	}

	ctx := context.Background()

	// カメラデバイスを決定する
	path := cfg.Camera.Device
	if path == "" {
		discovery := camera.NewLinuxDiscovery()
		if devices, scanErr := discovery.ScanDevices(ctx); scanErr == nil && len(devices) > 0 {
			path = devices[0]
			log.Printf("カメラを自動検出しました: %s (%s)", path, discovery.DeviceName(ctx, path))
		} else {
			path = "/dev/video0"
			log.Printf("カメラが見つからないため既定のデバイスを使用します: %s", path)
		}
	}

	// サーバーを作成
	srv := server.New(cfg, camera.NewDevice(path))

	// サーバーを起動
	log.Printf("Hitomi サーバーを起動します: %s", cfg.ServerAddress())
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}
}
