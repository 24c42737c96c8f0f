package config

import (
	"testing"
)

func newTestConfig() *Config {
	return &Config{
		Stream:      StreamConfig{Width: 1280, Height: 720, Framerate: 15, Quality: 80},
		Enabled:     true,
		HighQuality: false,
	}
}

func TestStore_InitialValues(t *testing.T) {
	store := NewStore(newTestConfig())

	if store.StreamConfig() != (StreamConfig{Width: 1280, Height: 720, Framerate: 15, Quality: 80}) {
		t.Errorf("初期ストリーム設定が一致しません: %+v", store.StreamConfig())
	}
	if !store.Enabled() {
		t.Error("初期のEnabledが一致しません")
	}
	if store.HighQuality() {
		t.Error("初期のHighQualityが一致しません")
	}
}

func TestStore_NotifiesOnChange(t *testing.T) {
	store := NewStore(newTestConfig())

	var streamEvents []StreamConfig
	var enabledEvents []bool
	var tierEvents []bool
	store.OnStreamConfigChanged(func(sc StreamConfig) { streamEvents = append(streamEvents, sc) })
	store.OnEnabledChanged(func(v bool) { enabledEvents = append(enabledEvents, v) })
	store.OnQualityTierChanged(func(v bool) { tierEvents = append(tierEvents, v) })

	next := StreamConfig{Width: 640, Height: 480, Framerate: 30, Quality: 70}
	store.SetStreamConfig(next)
	store.SetEnabled(false)
	store.SetHighQuality(true)

	if len(streamEvents) != 1 || streamEvents[0] != next {
		t.Errorf("ストリーム設定の通知が一致しません: %+v", streamEvents)
	}
	if len(enabledEvents) != 1 || enabledEvents[0] != false {
		t.Errorf("Enabledの通知が一致しません: %+v", enabledEvents)
	}
	if len(tierEvents) != 1 || tierEvents[0] != true {
		t.Errorf("HighQualityの通知が一致しません: %+v", tierEvents)
	}

	// 値も更新されている
	if store.StreamConfig() != next {
		t.Errorf("ストリーム設定が更新されていません: %+v", store.StreamConfig())
	}
	if store.Enabled() {
		t.Error("Enabledが更新されていません")
	}
	if !store.HighQuality() {
		t.Error("HighQualityが更新されていません")
	}
}

func TestStore_NoNotifyOnSameValue(t *testing.T) {
	cfg := newTestConfig()
	store := NewStore(cfg)

	notified := 0
	store.OnStreamConfigChanged(func(StreamConfig) { notified++ })
	store.OnEnabledChanged(func(bool) { notified++ })
	store.OnQualityTierChanged(func(bool) { notified++ })

	// 現在値と同じ書き込みは通知しない
	store.SetStreamConfig(cfg.Stream)
	store.SetEnabled(cfg.Enabled)
	store.SetHighQuality(cfg.HighQuality)

	if notified != 0 {
		t.Errorf("同一値の書き込みで通知されました: %d回", notified)
	}
}

// TestStore_ReentrantSetTerminates はハンドラ内からの書き戻し
// （自己修復）がデッドロックせず、値の収束で止まることを確認する
func TestStore_ReentrantSetTerminates(t *testing.T) {
	store := NewStore(newTestConfig())
	healed := StreamConfig{Width: 640, Height: 480, Framerate: 30, Quality: 80}

	calls := 0
	store.OnStreamConfigChanged(func(sc StreamConfig) {
		calls++
		// 適用できない値は常に同じ値へ修復される想定
		store.SetStreamConfig(healed)
	})

	store.SetStreamConfig(StreamConfig{Width: 9999, Height: 9999, Framerate: 99, Quality: 80})

	if store.StreamConfig() != healed {
		t.Errorf("自己修復後の値が一致しません: %+v", store.StreamConfig())
	}
	// 初回変更と修復書き込みの2回で収束する
	if calls != 2 {
		t.Errorf("通知回数が一致しません: got %d, want 2", calls)
	}
}
