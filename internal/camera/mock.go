package camera

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
)

// MockDevice はテスト用のモックデバイス実装
type MockDevice struct {
	mu sync.Mutex

	// 列挙させるフォーマットと解像度
	formats     []PixelFormat
	resolutions map[PixelFormat][]Resolution

	opened       bool
	mode         Mode
	captureCount int
	setModeCalls []Mode

	// テスト制御用
	shouldFailOpen    bool
	shouldFailCapture bool
}

// NewMockDevice は新しいMockDeviceを作成する
func NewMockDevice(resolutions []Resolution) *MockDevice {
	return &MockDevice{
		formats: []PixelFormat{PixelFormatMJPEG},
		resolutions: map[PixelFormat][]Resolution{
			PixelFormatMJPEG: resolutions,
		},
	}
}

// Open はモックデバイスをオープンする
func (m *MockDevice) Open(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFailOpen {
		return fmt.Errorf("モック: デバイスのオープンに失敗")
	}

	m.opened = true
	return nil
}

// Close はモックデバイスをクローズする
func (m *MockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = false
	return nil
}

// Formats はサポートされるフォーマット一覧を返す
func (m *MockDevice) Formats(_ context.Context) ([]PixelFormat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.opened {
		return nil, ErrNotOpened
	}

	formats := make([]PixelFormat, len(m.formats))
	copy(formats, m.formats)
	return formats, nil
}

// Resolutions は指定フォーマットの解像度一覧を返す
func (m *MockDevice) Resolutions(_ context.Context, format PixelFormat) ([]Resolution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.opened {
		return nil, ErrNotOpened
	}

	res := make([]Resolution, len(m.resolutions[format]))
	copy(res, m.resolutions[format])
	return res, nil
}

// SetMode は動作モードを記録しつつ切り替える
func (m *MockDevice) SetMode(_ context.Context, mode Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.opened {
		return ErrNotOpened
	}

	m.mode = mode
	m.setModeCalls = append(m.setModeCalls, mode)
	return nil
}

// Capture はキャプチャ回数に応じて内容の変わる画像を生成する
func (m *MockDevice) Capture(_ context.Context) (image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.opened {
		return nil, ErrNotOpened
	}

	if m.shouldFailCapture {
		return nil, fmt.Errorf("モック: フレームキャプチャに失敗")
	}

	m.captureCount++

	// フレームごとに内容が変わるよう、キャプチャ回数で色を変える
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	c := color.RGBA{R: uint8(m.captureCount), G: uint8(m.captureCount >> 8), B: 0x40, A: 0xFF}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img, nil
}

// CaptureCount はこれまでのキャプチャ回数を返す
func (m *MockDevice) CaptureCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captureCount
}

// SetModeCalls はSetModeの呼び出し履歴を返す
func (m *MockDevice) SetModeCalls() []Mode {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]Mode, len(m.setModeCalls))
	copy(calls, m.setModeCalls)
	return calls
}

// CurrentMode は現在のモードを返す
func (m *MockDevice) CurrentMode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// IsOpened はオープン状態を返す
func (m *MockDevice) IsOpened() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// SetShouldFailOpen はテスト用にOpen失敗を設定する
func (m *MockDevice) SetShouldFailOpen(shouldFail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOpen = shouldFail
}

// SetShouldFailCapture はテスト用にCapture失敗を設定する
func (m *MockDevice) SetShouldFailCapture(shouldFail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailCapture = shouldFail
}
