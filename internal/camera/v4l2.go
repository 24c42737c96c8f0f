//go:build linux

package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/vladimirvivien/go4vl/device"
	"github.com/vladimirvivien/go4vl/v4l2"
)

// captureTimeout は1フレーム取得の上限時間
// ストリームが詰まった場合にtickを恒久的にブロックさせないための値
const captureTimeout = 3 * time.Second

// V4L2Device はgo4vlを使ったV4L2カメラの実装
//
// モード切り替えはデバイスの再オープンとして実装される
// （V4L2はストリーミング中のフォーマット変更を許可しないため）
type V4L2Device struct {
	path   string
	dev    *device.Device
	mode   Mode
	cancel context.CancelFunc
	frames <-chan []byte
}

// NewDevice は指定パスのV4L2デバイスを作成する
func NewDevice(path string) Device {
	return &V4L2Device{path: path}
}

// Open はデバイスをオープンする
// この時点ではストリーミングを開始せず、列挙のみ可能な状態にする
func (d *V4L2Device) Open(_ context.Context) error {
	if d.dev != nil {
		return nil // 既にオープン済み
	}

	dev, err := device.Open(d.path)
	if err != nil {
		return fmt.Errorf("デバイスのオープンに失敗 %s: %w", d.path, err)
	}

	d.dev = dev
	return nil
}

// Close はデバイスをクローズする
func (d *V4L2Device) Close() error {
	if d.dev == nil {
		return nil
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	err := d.dev.Close()
	d.dev = nil
	d.frames = nil
	d.mode = Mode{}
	return err
}

// Formats はJPEG系のサポートフォーマット一覧を返す
// 非圧縮フォーマットはキャプチャ対象外のため列挙しない
func (d *V4L2Device) Formats(_ context.Context) ([]PixelFormat, error) {
	if d.dev == nil {
		return nil, ErrNotOpened
	}

	descs, err := d.dev.GetFormatDescriptions()
	if err != nil {
		return nil, fmt.Errorf("フォーマット一覧の取得に失敗: %w", err)
	}

	var formats []PixelFormat
	for _, desc := range descs {
		switch desc.PixelFormat {
		case v4l2.PixelFmtJPEG:
			formats = append(formats, PixelFormatJPEG)
		case v4l2.PixelFmtMJPEG:
			formats = append(formats, PixelFormatMJPEG)
		}
	}
	return formats, nil
}

// Resolutions は指定フォーマットでサポートされる解像度一覧を返す
func (d *V4L2Device) Resolutions(_ context.Context, format PixelFormat) ([]Resolution, error) {
	if d.dev == nil {
		return nil, ErrNotOpened
	}

	sizes, err := v4l2.GetFormatFrameSizes(d.dev.Fd(), fourCC(format))
	if err != nil {
		return nil, fmt.Errorf("解像度一覧の取得に失敗: %w", err)
	}

	resolutions := make([]Resolution, 0, len(sizes))
	for _, s := range sizes {
		resolutions = append(resolutions, Resolution{
			Width:  int(s.Size.MinWidth),
			Height: int(s.Size.MinHeight),
		})
	}
	return resolutions, nil
}

// SetMode は動作モードを切り替える
// 既存のストリーミングを止め、新しいフォーマットで再オープンする
func (d *V4L2Device) SetMode(ctx context.Context, mode Mode) error {
	if d.dev == nil {
		return ErrNotOpened
	}

	// 既存のストリームを停止してクローズ
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.dev.Close(); err != nil {
		return fmt.Errorf("デバイスの再初期化に失敗: %w", err)
	}
	d.dev = nil
	d.frames = nil

	dev, err := device.Open(
		d.path,
		device.WithBufferSize(2),
		device.WithPixFormat(v4l2.PixFormat{
			PixelFormat: fourCC(mode.Format),
			Width:       uint32(mode.Width),
			Height:      uint32(mode.Height),
		}),
		device.WithFPS(uint32(mode.FPS)),
	)
	if err != nil {
		return fmt.Errorf("モード %s での再オープンに失敗: %w", mode, err)
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	if err := dev.Start(streamCtx); err != nil {
		cancel()
		_ = dev.Close()
		return fmt.Errorf("ストリーミングの開始に失敗: %w", err)
	}

	d.dev = dev
	d.cancel = cancel
	d.frames = dev.GetOutput()
	d.mode = mode
	return nil
}

// Capture はストリームから1フレームを取り出してデコードする
func (d *V4L2Device) Capture(ctx context.Context) (image.Image, error) {
	if d.dev == nil || d.frames == nil {
		return nil, ErrNotOpened
	}

	timer := time.NewTimer(captureTimeout)
	defer timer.Stop()

	select {
	case frame, ok := <-d.frames:
		if !ok {
			return nil, fmt.Errorf("フレームストリームがクローズされました")
		}
		img, err := jpeg.Decode(bytes.NewReader(frame))
		if err != nil {
			return nil, fmt.Errorf("JPEG画像のデコードに失敗: %w", err)
		}
		return img, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("フレーム取得がタイムアウトしました")
	}
}

// fourCC はPixelFormatをV4L2のFourCCへ変換する
func fourCC(format PixelFormat) v4l2.FourCCType {
	switch format {
	case PixelFormatJPEG:
		return v4l2.PixelFmtJPEG
	default:
		return v4l2.PixelFmtMJPEG
	}
}
