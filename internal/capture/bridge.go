package capture

import (
	"context"
	"log"

	"hitomi/internal/config"
)

// Bridge は設定ストアの変更通知をSchedulerへ適用する
//
// 購読するイベントはストリーム設定の変更、有効/無効の切り替え、
// 高画質モードの切り替えの3種。適用結果が要求と異なる場合は
// 適用された値をストアへ書き戻す（自己修復）
type Bridge struct {
	scheduler *Scheduler
	store     *config.Store
	ctx       context.Context
}

// NewBridge は新しいBridgeを作成する
func NewBridge(scheduler *Scheduler, store *config.Store) *Bridge {
	return &Bridge{
		scheduler: scheduler,
		store:     store,
	}
}

// Register は各変更イベントの購読を開始する
// ctxは有効化時のデバイス初期化に使われる
func (b *Bridge) Register(ctx context.Context) {
	b.ctx = ctx
	b.store.OnStreamConfigChanged(b.handleStreamConfig)
	b.store.OnEnabledChanged(b.handleEnabled)
	b.store.OnQualityTierChanged(b.handleQualityTier)
}

// handleStreamConfig はストリーム設定の変更を適用する
func (b *Bridge) handleStreamConfig(sc config.StreamConfig) {
	if !b.scheduler.Available() {
		return // 有効化時に解決される
	}

	req := ModeRequest{
		Width:   sc.Width,
		Height:  sc.Height,
		FPS:     sc.Framerate,
		Quality: sc.Quality,
	}
	applied, err := b.scheduler.ApplyModeAndQuality(req)
	if err != nil {
		log.Printf("ストリーム設定の適用に失敗: %v", err)
		return
	}

	// 要求と適用結果が異なる場合（品質ティアによる制限や
	// 無効な保存値）は、保存設定を現実に合わせる
	if applied != sc {
		b.store.SetStreamConfig(applied)
	}
}

// handleEnabled はキャプチャの有効/無効を切り替える
func (b *Bridge) handleEnabled(enabled bool) {
	if enabled {
		if err := b.scheduler.Enable(b.ctx); err != nil {
			log.Printf("キャプチャの有効化に失敗: %v", err)
		}
		return
	}
	b.scheduler.Disable()
}

// handleQualityTier は品質ティアの変更に合わせて
// 保存された設定を解決し直す
func (b *Bridge) handleQualityTier(highQuality bool) {
	if highQuality {
		log.Printf("高画質モードを有効にしました")
	} else {
		log.Printf("高画質モードを無効にしました")
	}

	if !b.scheduler.Available() {
		return
	}

	sc := b.store.StreamConfig()
	applied, err := b.scheduler.ApplyModeAndQuality(ModeRequest{
		Width:  sc.Width,
		Height: sc.Height,
		FPS:    sc.Framerate,
	})
	if err != nil {
		log.Printf("品質ティア変更の適用に失敗: %v", err)
		return
	}

	if applied != sc {
		b.store.SetStreamConfig(applied)
	}
}
