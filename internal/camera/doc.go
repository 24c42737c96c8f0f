// Package camera カメラデバイスへの境界を担う
//
// # 責務
// - カメラハードウェアを抽象化するDeviceインターフェースの提供
// - V4L2デバイス(go4vl)による実装
// - デバイスの自動検出と実名取得
// - テスト用モックデバイスの提供
//
// # 使い分け
// このパッケージは以下の場合に使用する：
// - カメラのピクセルフォーマット・解像度を列挙したい
// - カメラの動作モードを切り替えたい
// - カメラから生フレームを1枚取得したい
//
// # 仕様
//   - Device: オープン/クローズ、フォーマット・解像度の列挙、
//     モード切り替え、1フレーム取得
//   - Deviceへの呼び出しはハードウェアを所有する単一ゴルーチンから
//     行うこと（直列化は呼び出し側の責務）
//   - V4L2実装はLinux専用。その他のプラットフォームでは
//     全操作がエラーを返すスタブになる
//
// # 前提要件
//   - v4l-utils: カメラ名の取得に使用（任意）
//     Ubuntu/Debian: sudo apt install v4l-utils
//   - videoグループへの参加: デバイスアクセス権限
//     sudo usermod -a -G video $USER
package camera
