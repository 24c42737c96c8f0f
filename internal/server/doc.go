// Package server は、HTTPサーバーとストリーミング配信の入口を管理します。
//
// このパッケージは、HTTPサーバーの起動、ルーティング、
// キャプチャ系コンポーネントの配線を担当します。
//
// 責務:
//   - HTTPサーバーの起動と管理
//   - ストリーム・モード一覧・スナップショット・状態エンドポイントの提供
//   - Scheduler/Distributor/Bridge/Storeの配線
//   - グレースフルシャットダウン
//
// 仕様:
//   - ルーティングはgin-gonic/ginを使用
//   - ストリーム配信はinternal/streamに委譲
//   - 設定変更は設定ストアの通知経由でのみキャプチャ系へ届く
//   - SIGINT/SIGTERMで安全に停止する
package server
