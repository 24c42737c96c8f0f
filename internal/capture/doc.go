// Package capture キャプチャのスケジューリングとモード調停を担う
//
// # 責務
// - サポートされるカメラモードのカタログ構築 (Catalog)
// - 要求設定から最適モードへの解決 (SelectMode)
// - 周期的なキャプチャ・エンコードサイクルの駆動 (Scheduler)
// - 視聴者不在時の省電力一時停止
// - 設定ストアの変更通知の適用と自己修復 (Bridge)
//
// # 仕様
//   - ハードウェアに触れる呼び出しは全て、カメラを所有する単一の
//     ワーカーゴルーチンへタスクとして直列化される
//   - 最新フレームは単一スロット（latest-wins）であり、
//     シーケンス番号の比較でのみ鮮度を判定する。ロックは持たない
//   - 一時停止はpause述語（接続クライアント数 == 0）を
//     キャプチャtickごとに評価して遷移する
//   - 回復不能なキャプチャエラーが発生した場合、サイクルは
//     Disable/Enableまで恒久的に停止する（enabledフラグは維持）
package capture
