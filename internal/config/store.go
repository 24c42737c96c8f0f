package config

import (
	"sync"
)

// Store は永続化された設定への境界を提供する
//
// 永続化そのものは外部コラボレーター（設定ストア）の責務であり、
// ここではメモリ上の現在値と変更通知のみを扱う。
// 購読者は種別ごとのコールバックを登録し、値が実際に変化した
// 場合にのみ同期的に通知を受け取る。
type Store struct {
	mu          sync.Mutex
	stream      StreamConfig
	enabled     bool
	highQuality bool

	streamHandlers  []func(StreamConfig)
	enabledHandlers []func(bool)
	tierHandlers    []func(bool)
}

// NewStore は読み込み済みの設定から新しいStoreを作成する
func NewStore(cfg *Config) *Store {
	return &Store{
		stream:      cfg.Stream,
		enabled:     cfg.Enabled,
		highQuality: cfg.HighQuality,
	}
}

// StreamConfig は現在のストリーム設定を返す
func (s *Store) StreamConfig() StreamConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

// Enabled はキャプチャの有効/無効を返す
func (s *Store) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// HighQuality は高画質モードの有効/無効を返す
func (s *Store) HighQuality() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highQuality
}

// SetStreamConfig はストリーム設定を更新する
// クライアント要求による変更と自己修復の両方がこの操作を使う
func (s *Store) SetStreamConfig(sc StreamConfig) {
	s.mu.Lock()
	if s.stream == sc {
		s.mu.Unlock()
		return
	}
	s.stream = sc
	handlers := make([]func(StreamConfig), len(s.streamHandlers))
	copy(handlers, s.streamHandlers)
	s.mu.Unlock()

	// 通知はロック外で行う。ハンドラは自己修復のために
	// SetStreamConfigを再帰的に呼び出してよい
	for _, h := range handlers {
		h(sc)
	}
}

// SetEnabled はキャプチャの有効/無効を更新する
func (s *Store) SetEnabled(enabled bool) {
	s.mu.Lock()
	if s.enabled == enabled {
		s.mu.Unlock()
		return
	}
	s.enabled = enabled
	handlers := make([]func(bool), len(s.enabledHandlers))
	copy(handlers, s.enabledHandlers)
	s.mu.Unlock()

	for _, h := range handlers {
		h(enabled)
	}
}

// SetHighQuality は高画質モードの有効/無効を更新する
func (s *Store) SetHighQuality(enabled bool) {
	s.mu.Lock()
	if s.highQuality == enabled {
		s.mu.Unlock()
		return
	}
	s.highQuality = enabled
	handlers := make([]func(bool), len(s.tierHandlers))
	copy(handlers, s.tierHandlers)
	s.mu.Unlock()

	for _, h := range handlers {
		h(enabled)
	}
}

// OnStreamConfigChanged はストリーム設定変更の購読者を登録する
func (s *Store) OnStreamConfigChanged(fn func(StreamConfig)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamHandlers = append(s.streamHandlers, fn)
}

// OnEnabledChanged は有効/無効変更の購読者を登録する
func (s *Store) OnEnabledChanged(fn func(bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabledHandlers = append(s.enabledHandlers, fn)
}

// OnQualityTierChanged は高画質モード変更の購読者を登録する
func (s *Store) OnQualityTierChanged(fn func(bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tierHandlers = append(s.tierHandlers, fn)
}
