package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"lankasafe-hq/auth"
	"lankasafe-hq/db"
	"lankasafe-hq/districts"
	"lankasafe-hq/geocode"
	"lankasafe-hq/live"
	"lankasafe-hq/notify"
	"lankasafe-hq/presence"
)

// Handlers carries everything the HQ API needs. Geocoder may be nil.
type Handlers struct {
	Feed      *live.Feed
	Hub       *live.Hub
	Records   *db.Records
	Router    *notify.Router
	Districts *districts.Gazetteer
	Presence  *presence.Service
	Geocoder  geocode.Geocoder
	Auth      auth.Authenticator
	Sessions  *auth.SessionManager
	Location  *time.Location
	Log       *zap.Logger
	Now       func() time.Time
}

// textPolicy strips all markup from staff-entered free text.
var textPolicy = bluemonday.StrictPolicy()

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// RequireFeed answers 503 until every collection has delivered its first
// snapshot, and for good once a subscription has failed.
func (h *Handlers) RequireFeed() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.Feed.Err(); err != nil {
			var se *live.SubscriptionError
			details := err.Error()
			if errors.As(err, &se) {
				details = "could not subscribe to " + se.Collection + ": " + se.Err.Error()
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":       "Live data unavailable",
				"details":     details,
				"remediation": "Check the Firestore credentials and security rules for this service account, then restart the HQ server.",
			})
			return
		}
		if !h.Feed.Ready() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":   "Loading",
				"details": "live data is still loading, retry shortly",
			})
			return
		}
		c.Next()
	}
}

// writeFailed maps a write-through error to a response. Nothing is retried;
// the dashboard keeps showing the last snapshot.
func (h *Handlers) writeFailed(c *gin.Context, err error, action string) {
	var we *db.WriteError
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found", "details": err.Error()})
	case errors.As(err, &we):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     "Failed to " + action,
			"details":   we.Error(),
			"transient": true,
		})
	default:
		h.Log.Error("unexpected write error", zap.String("action", action), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action, "details": err.Error()})
	}
}

func badRequest(c *gin.Context, msg string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "details": err.Error()})
}

func notFound(c *gin.Context, kind, id string) {
	c.JSON(http.StatusNotFound, gin.H{"error": kind + " not found", "details": id})
}

// Hello is the root liveness message.
func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello, welcome to LankaSafe HQ!"})
}

func (h *Handlers) Health(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	switch {
	case h.Feed.Err() != nil:
		status, code = "failed", http.StatusServiceUnavailable
	case !h.Feed.Ready():
		status = "loading"
	}
	c.JSON(code, gin.H{"status": status, "gazetteerVersion": h.Districts.Version()})
}

// WebSocket upgrades the request onto the snapshot hub.
func (h *Handlers) WebSocket(c *gin.Context) {
	h.Hub.ServeWS(c.Writer, c.Request)
}
