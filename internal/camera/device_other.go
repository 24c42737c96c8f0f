//go:build !linux

package camera

import (
	"context"
	"fmt"
	"image"
)

// unsupportedDevice はLinux以外のプラットフォーム向けのスタブ
type unsupportedDevice struct {
	path string
}

// NewDevice は指定パスのデバイスを作成する
// Linux以外では全操作がエラーを返す
func NewDevice(path string) Device {
	return &unsupportedDevice{path: path}
}

func (d *unsupportedDevice) Open(_ context.Context) error {
	return fmt.Errorf("このプラットフォームではV4L2デバイスを利用できません: %s", d.path)
}

func (d *unsupportedDevice) Close() error { return nil }

func (d *unsupportedDevice) Formats(_ context.Context) ([]PixelFormat, error) {
	return nil, ErrNotOpened
}

func (d *unsupportedDevice) Resolutions(_ context.Context, _ PixelFormat) ([]Resolution, error) {
	return nil, ErrNotOpened
}

func (d *unsupportedDevice) SetMode(_ context.Context, _ Mode) error {
	return ErrNotOpened
}

func (d *unsupportedDevice) Capture(_ context.Context) (image.Image, error) {
	return nil, ErrNotOpened
}
