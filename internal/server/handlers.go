package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusResponse はシステム状態のレスポンス
type StatusResponse struct {
	Status    string      `json:"status"`
	Server    ServerInfo  `json:"server"`
	Capture   CaptureInfo `json:"capture"`
	Timestamp time.Time   `json:"timestamp"`
}

// ServerInfo はサーバーの情報
type ServerInfo struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// CaptureInfo はキャプチャの状態
type CaptureInfo struct {
	Enabled  bool   `json:"enabled"`
	Paused   bool   `json:"paused"`
	Failed   bool   `json:"failed"`
	Mode     string `json:"mode,omitempty"`
	Quality  int    `json:"quality"`
	Clients  int64  `json:"clients"`
	FrameSeq uint64 `json:"frame_seq"`
}

// ModeInfo はカメラモード1件の情報
type ModeInfo struct {
	Width     int `json:"width"`
	Height    int `json:"height"`
	Framerate int `json:"framerate"`
}

// ErrorResponse はエラーのレスポンス
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// handleHealth はヘルスチェックエンドポイントの実装
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

// handleStatus はシステム状態取得エンドポイントの実装
func (s *Server) handleStatus(c *gin.Context) {
	info := CaptureInfo{
		Enabled: s.scheduler.Available(),
		Paused:  s.scheduler.Paused(),
		Failed:  s.scheduler.Failed(),
		Quality: s.scheduler.Quality(),
		Clients: s.distributor.ActiveClients(),
	}

	if mode := s.scheduler.Mode(); !mode.IsZero() {
		info.Mode = mode.String()
	}
	if frame := s.scheduler.Latest(); frame != nil {
		info.FrameSeq = frame.Seq
	}

	c.JSON(http.StatusOK, StatusResponse{
		Status: "running",
		Server: ServerInfo{
			Host: s.config.Server.Host,
			Port: s.config.Server.Port,
		},
		Capture:   info,
		Timestamp: time.Now(),
	})
}

// handleModes はモード一覧取得エンドポイントの実装
// キャプチャが開始されていない場合は503を返す
func (s *Server) handleModes(c *gin.Context) {
	modes, err := s.scheduler.Modes()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:     "capture_not_started",
			Message:   "キャプチャが開始されていません",
			Timestamp: time.Now(),
		})
		return
	}

	result := make([]ModeInfo, 0, len(modes))
	for _, m := range modes {
		result = append(result, ModeInfo{
			Width:     m.Width,
			Height:    m.Height,
			Framerate: m.FPS,
		})
	}

	c.JSON(http.StatusOK, gin.H{"modes": result})
}

// handleSnapshot は最新フレームを1枚のJPEGとして返す
func (s *Server) handleSnapshot(c *gin.Context) {
	if !s.scheduler.Available() {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:     "capture_not_started",
			Message:   "キャプチャが開始されていません",
			Timestamp: time.Now(),
		})
		return
	}

	frame := s.scheduler.Latest()
	if frame == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:     "no_frame",
			Message:   "フレームがまだ取得されていません",
			Timestamp: time.Now(),
		})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", frame.Data)
}
