package stream

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"hitomi/internal/capture"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// boundary はmultipartパートの区切りトークン
const boundary = "--frame"

// Distributor は接続中の各クライアントへ独立した
// MJPEGストリームを配信する
type Distributor struct {
	scheduler *capture.Scheduler

	// clients は接続中のクライアント数
	// Schedulerのpause述語はこの値が0かどうかを見る
	clients atomic.Int64
}

// NewDistributor は新しいDistributorを作成する
func NewDistributor(scheduler *capture.Scheduler) *Distributor {
	return &Distributor{scheduler: scheduler}
}

// ActiveClients は接続中のクライアント数を返す
func (d *Distributor) ActiveClients() int64 {
	return d.clients.Load()
}

// Idle は視聴者がいないかどうかを返す（Schedulerのpause述語）
func (d *Distributor) Idle() bool {
	return d.clients.Load() == 0
}

// Serve は1クライアント接続の生存期間だけ実行される配信ループ
func (d *Distributor) Serve(c *gin.Context) {
	if !d.scheduler.Available() {
		c.String(http.StatusServiceUnavailable, "カメラストリームは利用できません")
		return
	}

	// クエリパラメータによるモード・品質の上書き
	// これは共有の永続設定を変更し、接続中の全クライアントに影響する
	if req := parseStreamQuery(c); req != (capture.ModeRequest{}) {
		if err := d.scheduler.SetModeAndQualityPersisted(req); err != nil {
			log.Printf("クライアント要求の適用に失敗: %v", err)
		}
	}

	clientID := uuid.New().String()
	count := d.clients.Add(1)
	// 一時停止中のキャプチャを即座に再開させる
	d.scheduler.Wake()
	log.Printf("ストリーム接続: client=%s remote=%s clients=%d", clientID, c.ClientIP(), count)

	// どの終了経路でも正確に1回だけ減算する
	defer func() {
		count := d.clients.Add(-1)
		log.Printf("ストリーム切断: client=%s clients=%d", clientID, count)
	}()

	c.Header("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Writer.WriteHeader(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		log.Printf("レスポンスライターがFlusherを実装していません: client=%s", clientID)
		return
	}

	clientGone := c.Request.Context().Done()

	var lastSeq uint64
	for d.scheduler.Available() {
		// 新しいフレームのみ配信する。同じフレームは再送しない
		if frame := d.scheduler.Latest(); frame != nil && frame.Seq > lastSeq {
			if err := writeChunk(c.Writer, frame.Data); err != nil {
				// 書き込み失敗は通常の切断として扱う
				return
			}
			flusher.Flush()
			lastSeq = frame.Seq
		}

		select {
		case <-clientGone:
			return
		case <-time.After(d.paceInterval()):
		}
	}
}

// paceInterval は現在のモードのフレームレートに応じた配信間隔を返す
func (d *Distributor) paceInterval() time.Duration {
	fps := d.scheduler.Mode().FPS
	if fps < 1 {
		fps = 1
	}
	return time.Second / time.Duration(fps)
}

// writeChunk は1フレームをmultipartパートとして書き込む
func writeChunk(w io.Writer, data []byte) error {
	if _, err := fmt.Fprintf(w, "\r\n%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", boundary, len(data)); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// parseStreamQuery はストリームのクエリパラメータを解釈する
// 解釈できないパラメータは未指定として黙って無視する
func parseStreamQuery(c *gin.Context) capture.ModeRequest {
	var req capture.ModeRequest

	if res := c.Query("resolution"); res != "" {
		var w, h int
		if n, err := fmt.Sscanf(res, "%dx%d", &w, &h); err == nil && n == 2 && w > 0 && h > 0 {
			req.Width = w
			req.Height = h
		}
	}

	if v := c.Query("fps"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			req.FPS = n
		}
	}

	if v := c.Query("compression"); v != "" {
		// 範囲外の値はSchedulerが[1,100]に収める
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			req.Quality = n
		}
	}

	return req
}
