package capture

import (
	"hitomi/internal/camera"
)

// 低画質モード時の上限。これを超えるモードは高画質モードが
// 有効な場合にのみ選択できる
const (
	lowQualityMaxPixels = 1280 * 720
	lowQualityMaxFPS    = 30
)

// ModeRequest は部分指定のモード・品質要求
// 0 は「未指定」を表し、未指定のフィールドは現在のモードで補完される
type ModeRequest struct {
	Width   int
	Height  int
	FPS     int
	Quality int
}

// HasMode は解像度・フレームレートのいずれかが指定されているかを返す
func (r ModeRequest) HasMode() bool {
	return r.Width != 0 || r.Height != 0 || r.FPS != 0
}

// SelectMode は要求に最も近いカタログ内のモードを返す
//
// 未指定のフィールドはactiveで補完される。要求を1軸でも超える
// モードは候補から外れるため、返されるモードが要求を上回ることはない。
// 完全一致があればスコアリングせずそれを返す。それ以外は
// 画素数の差を主、フレームレートの差（100倍重み）を従とした
// スコアの最小を選ぶ。同点はカタログの列挙順で先のものが勝つ。
func SelectMode(catalog *Catalog, active camera.Mode, req ModeRequest, highQuality bool) (camera.Mode, bool) {
	if !req.HasMode() {
		return camera.Mode{}, false
	}

	// 未指定フィールドを現在のモードで補完する
	targetW := req.Width
	if targetW == 0 {
		targetW = active.Width
	}
	targetH := req.Height
	if targetH == 0 {
		targetH = active.Height
	}
	targetFPS := req.FPS
	if targetFPS == 0 {
		targetFPS = active.FPS
	}

	var (
		best      camera.Mode
		bestScore int
		found     bool
	)

	for _, mode := range catalog.modes {
		// 低画質モードでは画素数・フレームレートの上限を超えるモードを除外
		if !highQuality && (mode.Pixels() > lowQualityMaxPixels || mode.FPS > lowQualityMaxFPS) {
			continue
		}

		// 要求を超えるモードは候補にしない
		if mode.Width > targetW || mode.Height > targetH || mode.FPS > targetFPS {
			continue
		}

		// 完全一致は即採用
		if mode.Width == targetW && mode.Height == targetH && mode.FPS == targetFPS {
			return mode, true
		}

		// 両項とも上のフィルタにより非負
		score := (targetW*targetH - mode.Pixels()) + 100*(targetFPS-mode.FPS)
		if !found || score < bestScore {
			best = mode
			bestScore = score
			found = true
		}
	}

	return best, found
}
