package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"kernex-dashboard/internal/logger"
	"kernex-dashboard/internal/middleware"
	"kernex-dashboard/internal/uistate"
	"kernex-dashboard/pkg/utils"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	streamBuffer     = 16
)

type UIHandler struct {
	store    *uistate.Store
	upgrader websocket.Upgrader
}

// NewUIHandler serves the shared selection store. checkOrigin may be nil
// to accept same-origin upgrades only.
func NewUIHandler(store *uistate.Store, checkOrigin func(r *http.Request) bool) *UIHandler {
	return &UIHandler{
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

func (h *UIHandler) RegisterRoutes(router *gin.RouterGroup) {
	ui := router.Group("/ui")
	ui.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	{
		ui.GET("/state", h.State)
		ui.POST("/sidebar/toggle", h.ToggleSidebar)
		ui.POST("/inspector", h.OpenInspector)
		ui.DELETE("/inspector", h.CloseInspector)
		ui.PUT("/filter", h.SetDeviceFilter)
		ui.GET("/stream", h.Stream)
	}
}

func (h *UIHandler) State(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "UI state retrieved successfully", h.store.Snapshot())
}

func (h *UIHandler) ToggleSidebar(c *gin.Context) {
	h.store.ToggleSidebar()
	utils.SuccessResponse(c, http.StatusOK, "Sidebar toggled", h.store.Snapshot())
}

type openInspectorRequest struct {
	DeviceID string `json:"deviceId" validate:"required,identifier"`
}

func (h *UIHandler) OpenInspector(c *gin.Context) {
	var req openInspectorRequest
	if !bindAndValidate(c, &req) {
		return
	}

	h.store.OpenInspector(req.DeviceID)
	utils.SuccessResponse(c, http.StatusOK, "Inspector opened", h.store.Snapshot())
}

func (h *UIHandler) CloseInspector(c *gin.Context) {
	h.store.CloseInspector()
	utils.SuccessResponse(c, http.StatusOK, "Inspector closed", h.store.Snapshot())
}

type deviceFilterRequest struct {
	Filter string `json:"filter" validate:"max=200"`
}

func (h *UIHandler) SetDeviceFilter(c *gin.Context) {
	var req deviceFilterRequest
	if !bindAndValidate(c, &req) {
		return
	}

	h.store.SetDeviceFilter(req.Filter)
	utils.SuccessResponse(c, http.StatusOK, "Device filter updated", h.store.Snapshot())
}

// Stream pushes the current selection and every later change to a
// websocket client. A slow client only ever misses intermediate states.
func (h *UIHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return
	}
	log := logger.WithRequestID(middleware.GetRequestID(c))

	updates := make(chan uistate.Selection, streamBuffer)
	push := func(sel uistate.Selection) {
		for {
			select {
			case updates <- sel:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	}

	unsubscribe := h.store.Watch(push)
	defer unsubscribe()

	done := make(chan struct{})
	go readUntilClosed(conn, done)

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case sel := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(sel); err != nil {
				log.Debug("UI stream write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readUntilClosed drains client frames so pongs and close frames are
// processed, and closes done when the connection goes away.
func readUntilClosed(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
