// Package stream MJPEGストリームの配信を担う
//
// # 責務
// - クライアントごとの multipart/x-mixed-replace 配信ループ
// - クエリパラメータによる初期モード・品質の調停
// - 接続クライアント数の管理（Schedulerのpause述語の入力）
//
// # 仕様
//   - 各クライアントは最新フレームのシーケンス番号を比較し、
//     新しいフレームのみを受け取る（同一フレームの再送はしない）
//   - 配信間隔は現在のモードのフレームレートに追従する
//   - 書き込み失敗は通常の切断として扱い、エラーにしない
//   - クライアント数はどの終了経路でも正確に1回だけ減算される
//   - クライアントが要求したモード変更は全クライアント共有の
//     永続設定として適用される（接続ごとの分離はしない）
package stream
