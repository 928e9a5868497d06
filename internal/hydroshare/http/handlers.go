package http

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/model-my-watershed/mmw-backend/internal/auth"
	"github.com/model-my-watershed/mmw-backend/internal/hydroshare"
)

const stateCookie = "hs_oauth_state"

// Handler exposes the HydroShare account-linking endpoints.
type Handler struct {
	svc *hydroshare.Service
}

func New(svc *hydroshare.Service) *Handler {
	return &Handler{svc: svc}
}

// authorize redirects the user to HydroShare's consent page.
func (h *Handler) authorize(c *gin.Context) {
	state := newState()
	c.SetCookie(stateCookie, state, 600, "/", "", false, true)
	c.Redirect(http.StatusFound, h.svc.AuthCodeURL(state))
}

// callback finishes the authorization-code flow and stores the token.
func (h *Handler) callback(c *gin.Context) {
	expected, err := c.Cookie(stateCookie)
	if err != nil || expected == "" || c.Query("state") != expected {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "state mismatch"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing authorization code"})
		return
	}

	userID := auth.UserDBID(c)
	if _, err := h.svc.ExchangeCode(c.Request.Context(), userID, code); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// disconnect drops the stored credential; resources already published stay
// on HydroShare.
func (h *Handler) disconnect(c *gin.Context) {
	userID := auth.UserDBID(c)
	if err := h.svc.Disconnect(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// metrics reports the in-process HydroShare call counters, mainly for
// eyeballing rate-limit pressure during an export burst.
func (h *Handler) metrics(c *gin.Context) {
	m := hydroshare.GetMetrics()
	c.JSON(http.StatusOK, gin.H{
		"calls":          m.Calls(),
		"errors":         m.Errors(),
		"avg_latency_ms": m.AverageLatency(),
	})
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/hydroshare/authorize", h.authorize)
	rg.GET("/hydroshare/callback", h.callback)
	rg.GET("/hydroshare/metrics", h.metrics)
	rg.DELETE("/hydroshare", h.disconnect)
}

func newState() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "state"
	}
	return hex.EncodeToString(b)
}
