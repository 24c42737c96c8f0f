package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// PixelFormat はカメラのピクセルフォーマットを表す
type PixelFormat string

const (
	// PixelFormatJPEG はJPEG圧縮フォーマットを表す
	PixelFormatJPEG PixelFormat = "JPEG"
	// PixelFormatMJPEG はMotion-JPEGフォーマットを表す
	PixelFormatMJPEG PixelFormat = "MJPG"
)

// ErrNotOpened はオープン前のデバイス操作で返される
var ErrNotOpened = errors.New("デバイスがオープンされていません")

// Resolution はカメラの解像度を表す
type Resolution struct {
	Width  int // 幅
	Height int // 高さ
}

// Mode はカメラの動作モードを表す不変値
// ピクセルフォーマット・解像度・フレームレートの組で一意に識別される
type Mode struct {
	Format PixelFormat
	Width  int
	Height int
	FPS    int
}

// Pixels はモードの画素数を返す
func (m Mode) Pixels() int {
	return m.Width * m.Height
}

// IsZero はモードが未設定かどうかを返す
func (m Mode) IsZero() bool {
	return m == Mode{}
}

// String はモードの表示用文字列を返す
func (m Mode) String() string {
	return fmt.Sprintf("%s %dx%d@%dfps", m.Format, m.Width, m.Height, m.FPS)
}

// Device はカメラハードウェアを抽象化するインターフェース
//
// 実装はスレッドセーフである必要はない。全ての呼び出しは
// ハードウェアを所有する単一のゴルーチンへ直列化される前提
type Device interface {
	// Open はデバイスをオープンする
	Open(ctx context.Context) error

	// Close はデバイスをクローズする
	Close() error

	// Formats はサポートされるピクセルフォーマット一覧を返す
	Formats(ctx context.Context) ([]PixelFormat, error)

	// Resolutions は指定フォーマットでサポートされる解像度一覧を返す
	Resolutions(ctx context.Context, format PixelFormat) ([]Resolution, error)

	// SetMode は動作モードを切り替える
	// ハードウェアは新しい解像度で再初期化されるため、
	// キャプチャの中断として観測される
	SetMode(ctx context.Context, mode Mode) error

	// Capture は1フレームをキャプチャして生画像を返す
	Capture(ctx context.Context) (image.Image, error)
}
