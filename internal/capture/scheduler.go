package capture

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"hitomi/internal/camera"
	"hitomi/internal/config"
)

// ErrDisabled はキャプチャ無効時の操作で返される
var ErrDisabled = errors.New("キャプチャが無効です")

// pausePollInterval は一時停止中・停止後にpause述語を確認する間隔
const pausePollInterval = 500 * time.Millisecond

// Frame はエンコード済みの1フレーム
// スロットには常に最大1枚のみ保持され、新しいフレームが
// 無条件に置き換える（latest-wins）
type Frame struct {
	Seq  uint64 // キャプチャtickごとに単調増加する番号
	Data []byte // JPEGペイロード
}

// Scheduler はカメラの動作モードを所有し、周期的な
// キャプチャ・エンコードサイクルを駆動する
//
// ハードウェアに触れる呼び出しは全て、カメラを所有する単一の
// ワーカーゴルーチンへタスクとして送られる。モード変更要求は
// このキューを通るため互いに直列化される
type Scheduler struct {
	device camera.Device
	store  *config.Store

	// pausePredicate がtrueを返す間、キャプチャは一時停止する
	// （接続クライアント数 == 0 が典型）
	pausePredicate func() bool

	// Enable/Disableの直列化とワーカーリソースの保護
	mu      sync.Mutex
	catalog *Catalog
	tasks   chan func()
	stopCh  chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	enabled atomic.Bool
	failed  atomic.Bool
	paused  atomic.Bool

	mode    atomic.Pointer[camera.Mode]
	quality atomic.Int32
	latest  atomic.Pointer[Frame]

	// 一時停止からの即時復帰用
	wake chan struct{}

	// ワーカーゴルーチンのみが書き込む
	seq uint64
}

// NewScheduler は新しいSchedulerを作成する
func NewScheduler(device camera.Device, store *config.Store) *Scheduler {
	return &Scheduler{
		device: device,
		store:  store,
		wake:   make(chan struct{}, 1),
	}
}

// SetPausePredicate はキャプチャを一時停止すべきかを判定する述語を設定する
// Enableの前に呼ぶこと
func (s *Scheduler) SetPausePredicate(fn func() bool) {
	s.pausePredicate = fn
}

// Enable はカタログを構築し、保存された設定を解決して
// キャプチャサイクルを開始する。既に有効な場合は何もしない
func (s *Scheduler) Enable(ctx context.Context) error {
	s.mu.Lock()
	if s.enabled.Load() {
		s.mu.Unlock()
		log.Printf("キャプチャは既に有効です")
		return nil
	}

	if err := s.device.Open(ctx); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("カメラのオープンに失敗: %w", err)
	}

	catalog, err := BuildCatalog(ctx, s.device)
	if err != nil {
		_ = s.device.Close()
		s.mu.Unlock()
		return fmt.Errorf("モードカタログの構築に失敗: %w", err)
	}
	if catalog.Len() == 0 {
		_ = s.device.Close()
		s.mu.Unlock()
		return fmt.Errorf("利用可能なカメラモードがありません")
	}

	// 保存された設定を解決する。解決できない場合は既定のカタログ位置
	sc := s.store.StreamConfig()
	req := ModeRequest{Width: sc.Width, Height: sc.Height, FPS: sc.Framerate}
	mode, ok := SelectMode(catalog, camera.Mode{}, req, s.store.HighQuality())
	if !ok {
		mode = catalog.modes[defaultModeIndex]
		log.Printf("保存設定 %dx%d@%dfps を解決できないため既定モード %s を使用します",
			sc.Width, sc.Height, sc.Framerate, mode)
	}

	if err := s.device.SetMode(ctx, mode); err != nil {
		_ = s.device.Close()
		s.mu.Unlock()
		return fmt.Errorf("モード %s の適用に失敗: %w", mode, err)
	}

	s.catalog = catalog
	s.mode.Store(&mode)
	s.quality.Store(int32(clampQuality(sc.Quality)))
	s.latest.Store(nil)
	s.failed.Store(false)
	s.paused.Store(false)
	s.seq = 0

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.stopCh = make(chan struct{})
	s.tasks = make(chan func(), 8)
	s.wg.Add(1)
	go s.run(runCtx, s.tasks, s.stopCh)

	s.enabled.Store(true)
	s.mu.Unlock()

	log.Printf("キャプチャを開始しました: mode=%s quality=%d", mode, s.Quality())

	// 自己修復: 適用されたモード・品質が保存値と異なる場合は書き戻し、
	// 保存設定が現実と乖離しないようにする
	applied := config.StreamConfig{
		Width:     mode.Width,
		Height:    mode.Height,
		Framerate: mode.FPS,
		Quality:   clampQuality(sc.Quality),
	}
	if applied != sc {
		s.store.SetStreamConfig(applied)
	}

	return nil
}

// Disable はキャプチャサイクルを停止し、最新フレームを破棄して
// カメラを解放する。既に無効な場合は何もしない
//
// Disableから戻った後にフレームが更新されることはない
func (s *Scheduler) Disable() {
	s.mu.Lock()
	if !s.enabled.Load() {
		s.mu.Unlock()
		log.Printf("キャプチャは既に無効です")
		return
	}

	s.enabled.Store(false)
	close(s.stopCh)
	s.cancel()
	s.mu.Unlock()

	// ワーカーの終了を待機
	s.wg.Wait()

	s.mu.Lock()
	s.latest.Store(nil)
	s.catalog = nil
	s.paused.Store(false)
	s.failed.Store(false)
	if err := s.device.Close(); err != nil {
		log.Printf("カメラのクローズに失敗: %v", err)
	}
	s.mu.Unlock()

	log.Printf("キャプチャを停止しました")
}

// ApplyModeAndQuality は品質とモードの変更をワーカーへ直列化して適用する
//
// 品質は指定があれば常に更新する。解像度・フレームレートの指定が
// ある場合はカタログから解決し、現在のモードと異なる場合のみ
// 切り替える。解決できない場合は現在のモードを維持する。
// 戻り値は実際に適用された設定
func (s *Scheduler) ApplyModeAndQuality(req ModeRequest) (config.StreamConfig, error) {
	s.mu.Lock()
	if !s.enabled.Load() {
		s.mu.Unlock()
		return config.StreamConfig{}, ErrDisabled
	}
	catalog := s.catalog
	tasks := s.tasks
	stopCh := s.stopCh
	s.mu.Unlock()

	highQuality := s.store.HighQuality()

	done := make(chan config.StreamConfig, 1)
	task := func() {
		if req.Quality != 0 {
			s.quality.Store(int32(clampQuality(req.Quality)))
		}

		if req.HasMode() {
			active := s.Mode()
			if mode, ok := SelectMode(catalog, active, req, highQuality); ok {
				if mode != active {
					if err := s.device.SetMode(context.Background(), mode); err != nil {
						log.Printf("モード %s への切り替えに失敗: %v", mode, err)
					} else {
						s.mode.Store(&mode)
						log.Printf("モードを切り替えました: %s", mode)
					}
				}
			} else {
				log.Printf("要求 %dx%d@%dfps に一致するモードがないため現在のモードを維持します",
					req.Width, req.Height, req.FPS)
			}
		}

		done <- s.appliedConfig()
	}

	select {
	case tasks <- task:
	case <-stopCh:
		return config.StreamConfig{}, ErrDisabled
	}

	select {
	case applied := <-done:
		return applied, nil
	case <-stopCh:
		return config.StreamConfig{}, ErrDisabled
	}
}

// SetModeAndQualityPersisted は変更を適用した上で、実際に適用された
// 値を正として永続設定へ書き戻す。クライアント要求を含む外部からの
// 変更は全てこの操作を使う
func (s *Scheduler) SetModeAndQualityPersisted(req ModeRequest) error {
	applied, err := s.ApplyModeAndQuality(req)
	if err != nil {
		return err
	}

	s.store.SetStreamConfig(applied)
	return nil
}

// run はカメラを所有するワーカーゴルーチン
// タスクの実行と周期tickのみを行い、ハードウェアへの
// アクセスを一箇所に集める
func (s *Scheduler) run(ctx context.Context, tasks chan func(), stopCh chan struct{}) {
	defer s.wg.Done()

	timer := time.NewTimer(s.tickInterval())
	defer timer.Stop()

	for {
		select {
		case <-stopCh:
			return
		case task := <-tasks:
			task()
		case <-s.wake:
			s.tick(ctx)
		case <-timer.C:
			s.tick(ctx)
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(s.tickInterval())
	}
}

// tick は1キャプチャ周期を処理する
func (s *Scheduler) tick(ctx context.Context) {
	// pause述語との整合をとる。一時停止に入るときは最新フレームを破棄
	// 恒久停止後もpaused状態は視聴者の有無を反映し続ける
	pause := s.pausePredicate != nil && s.pausePredicate()
	if pause != s.paused.Load() {
		s.paused.Store(pause)
		if pause {
			s.latest.Store(nil)
			log.Printf("視聴者がいないためキャプチャを一時停止します")
		} else {
			log.Printf("キャプチャを再開します")
		}
	}
	if pause || s.failed.Load() {
		return
	}

	img, err := s.device.Capture(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return // 停止処理中
		}
		// 回復不能とみなしサイクルを恒久停止する
		// enabledフラグは維持され、Disable/Enableで復旧する
		s.failed.Store(true)
		log.Printf("キャプチャに失敗したためサイクルを停止します: %v", err)
		return
	}

	data, err := encodeJPEG(img, int(s.quality.Load()))
	if err != nil {
		log.Printf("フレームのエンコードに失敗: %v", err)
		return
	}

	s.seq++
	s.latest.Store(&Frame{Seq: s.seq, Data: data})
}

// tickInterval は次のtickまでの間隔を返す
func (s *Scheduler) tickInterval() time.Duration {
	if s.failed.Load() || s.paused.Load() {
		return pausePollInterval
	}

	fps := s.Mode().FPS
	if fps < 1 {
		fps = 1
	}
	return time.Second / time.Duration(fps)
}

// Wake は一時停止中のワーカーを即座に起こす
// クライアント接続時に呼ばれ、1tick以内の再開を保証する
func (s *Scheduler) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Available はキャプチャが有効かどうかを返す
func (s *Scheduler) Available() bool {
	return s.enabled.Load()
}

// Failed はキャプチャサイクルが恒久停止しているかを返す
func (s *Scheduler) Failed() bool {
	return s.failed.Load()
}

// Paused はキャプチャが一時停止中かを返す
func (s *Scheduler) Paused() bool {
	return s.paused.Load()
}

// Mode は現在の動作モードを返す
func (s *Scheduler) Mode() camera.Mode {
	if m := s.mode.Load(); m != nil {
		return *m
	}
	return camera.Mode{}
}

// Quality は現在の圧縮品質を返す
func (s *Scheduler) Quality() int {
	return int(s.quality.Load())
}

// Latest は最新のエンコード済みフレームを返す
// フレームがない場合（未キャプチャ・一時停止中）はnil
func (s *Scheduler) Latest() *Frame {
	return s.latest.Load()
}

// Modes はカタログ内の全モードを返す
// キャプチャが開始されていない場合はエラー
func (s *Scheduler) Modes() ([]camera.Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled.Load() || s.catalog == nil {
		return nil, ErrDisabled
	}
	return s.catalog.Modes(), nil
}

// appliedConfig は現在適用されているモード・品質を設定値として返す
func (s *Scheduler) appliedConfig() config.StreamConfig {
	mode := s.Mode()
	return config.StreamConfig{
		Width:     mode.Width,
		Height:    mode.Height,
		Framerate: mode.FPS,
		Quality:   int(s.quality.Load()),
	}
}
