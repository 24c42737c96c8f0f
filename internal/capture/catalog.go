package capture

import (
	"context"
	"fmt"

	"hitomi/internal/camera"
)

// framerateLadder はカタログ生成に使う固定のフレームレート段階
var framerateLadder = []int{1, 5, 15, 24, 30, 48, 60}

// defaultModeIndex はモード解決に失敗した場合に使うカタログ位置
const defaultModeIndex = 0

// Catalog はデバイスがサポートするカメラモードの一覧
// 有効化時に一度だけ構築され、無効化時に破棄される
type Catalog struct {
	modes []camera.Mode
}

// BuildCatalog はデバイスが報告する解像度と固定フレームレート段階の
// 直積からカタログを構築する
func BuildCatalog(ctx context.Context, dev camera.Device) (*Catalog, error) {
	formats, err := dev.Formats(ctx)
	if err != nil {
		return nil, fmt.Errorf("フォーマットの列挙に失敗: %w", err)
	}

	var modes []camera.Mode
	for _, format := range formats {
		resolutions, err := dev.Resolutions(ctx, format)
		if err != nil {
			return nil, fmt.Errorf("解像度の列挙に失敗 (%s): %w", format, err)
		}

		for _, res := range resolutions {
			for _, fps := range framerateLadder {
				modes = append(modes, camera.Mode{
					Format: format,
					Width:  res.Width,
					Height: res.Height,
					FPS:    fps,
				})
			}
		}
	}

	return &Catalog{modes: modes}, nil
}

// NewCatalog は既知のモード一覧からカタログを作成する（テスト用途）
func NewCatalog(modes []camera.Mode) *Catalog {
	copied := make([]camera.Mode, len(modes))
	copy(copied, modes)
	return &Catalog{modes: copied}
}

// Modes はカタログ内の全モードのコピーを列挙順で返す
func (c *Catalog) Modes() []camera.Mode {
	modes := make([]camera.Mode, len(c.modes))
	copy(modes, c.modes)
	return modes
}

// Len はカタログ内のモード数を返す
func (c *Catalog) Len() int {
	return len(c.modes)
}

// Contains はモードがカタログに含まれるかを返す
func (c *Catalog) Contains(mode camera.Mode) bool {
	for _, m := range c.modes {
		if m == mode {
			return true
		}
	}
	return false
}
