package commerce

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deskhq/desk-backend/internal/auth"
	"github.com/deskhq/desk-backend/internal/httpx"
	"github.com/deskhq/desk-backend/internal/logging"
	"github.com/deskhq/desk-backend/internal/workspace"
)

const keepAliveInterval = 15 * time.Second

type Handler struct {
	svc      *Service
	tracker  *Tracker
	sessions *workspace.Registry
}

func NewHandler(svc *Service, tracker *Tracker, sessions *workspace.Registry) *Handler {
	return &Handler{svc: svc, tracker: tracker, sessions: sessions}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.GetStore)
	rg.DELETE("", h.Disconnect)
	rg.POST("/connect", h.Connect)
	rg.POST("/import", h.Import)
	rg.GET("/events", h.StreamEvents)
}

type connectReq struct {
	ShopURL string `json:"shop_url"`
}

func (h *Handler) GetStore(c *gin.Context) {
	ctx := c.Request.Context()
	uid := auth.UserID(c)
	st, err := h.svc.Status(ctx, uid)
	if err != nil {
		h.fail(c, "commerce.status", err)
		return
	}
	body := gin.H{"ok": true, "status": st}
	if st.Connected {
		sales, err := h.svc.Sales(ctx, uid)
		if err != nil {
			h.fail(c, "commerce.sales", err)
			return
		}
		products, err := h.svc.Products(ctx, uid)
		if err != nil {
			h.fail(c, "commerce.products", err)
			return
		}
		body["sales"] = sales
		body["products"] = products
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) Connect(c *gin.Context) {
	var req connectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid body")
		return
	}
	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	conn, err := h.svc.Connect(c.Request.Context(), s.UserID(), req.ShopURL, s.Notifications)
	if err != nil {
		h.fail(c, "commerce.connect", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "store": conn})
}

func (h *Handler) Import(c *gin.Context) {
	s, ok := workspace.SessionFor(c, h.sessions)
	if !ok {
		return
	}
	conn, err := h.svc.Import(c.Request.Context(), s.UserID(), s.Notifications)
	if err != nil {
		h.fail(c, "commerce.import", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "store": conn})
}

func (h *Handler) Disconnect(c *gin.Context) {
	if err := h.svc.Disconnect(c.Request.Context(), auth.UserID(c)); err != nil {
		h.fail(c, "commerce.disconnect", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// StreamEvents streams the user's connection and import events using Server-Sent Events (SSE)
func (h *Handler) StreamEvents(c *gin.Context) {
	ctx := c.Request.Context()
	uid := auth.UserID(c)

	st, err := h.svc.Status(ctx, uid)
	if err != nil {
		h.fail(c, "commerce.events", err)
		return
	}
	sub, err := h.tracker.Subscribe(ctx, uid)
	if err != nil {
		h.fail(c, "commerce.events", err)
		return
	}
	defer sub.Close()

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "streaming unsupported"})
		return
	}

	initial, _ := json.Marshal(gin.H{"status": st})
	fmt.Fprintf(c.Writer, "event: status\ndata: %s\n\n", initial)
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	msgs := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			ev, err := DecodeEvent(msg)
			if err != nil {
				logging.FromContext(ctx).Warnf("commerce.events", "%v", err)
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", ev.Type, msg.Payload)
			flusher.Flush()
		}
	}
}

func (h *Handler) fail(c *gin.Context, operation string, err error) {
	switch {
	case errors.Is(err, ErrInvalidShopURL):
		httpx.BadRequest(c, err.Error())
	case errors.Is(err, ErrNotConnected):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, ErrAlreadyConnected), errors.Is(err, ErrImportInProgress):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	default:
		httpx.Error(c, operation, err)
	}
}
