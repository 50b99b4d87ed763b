package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lankasafe-hq/auth"
	"lankasafe-hq/db"
	"lankasafe-hq/presence"
)

func (h *Handlers) UserPresence(c *gin.Context) {
	st, err := h.Presence.Status(c.Request.Context(), c.Param("id"), h.now())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to read presence", "details": err.Error(), "transient": true})
		return
	}
	c.JSON(http.StatusOK, st)
}

type reachabilityRequest struct {
	ContextType string `json:"contextType" binding:"required"`
	ContextID   string `json:"contextId" binding:"required"`
}

// RequestReachability asks whether the reporter's app is reachable, leaving a
// pending check for the app to resolve when it is not.
func (h *Handlers) RequestReachability(c *gin.Context) {
	var req reachabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "contextType and contextId are required", err)
		return
	}
	staff, _ := auth.CurrentStaff(c)
	res, err := h.Presence.RequestCheck(c.Request.Context(), presence.CheckRequest{
		UserID:      c.Param("id"),
		AdminID:     staff.Username,
		ContextType: req.ContextType,
		ContextID:   req.ContextID,
	}, h.now())
	if errors.Is(err, presence.ErrInvalidContext) {
		badRequest(c, "Invalid context", err)
		return
	}
	if err != nil {
		h.writeFailed(c, err, "request reachability check")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) ReachabilityCheck(c *gin.Context) {
	res, err := h.Presence.Check(c.Request.Context(), c.Param("id"), h.now())
	if errors.Is(err, db.ErrNotFound) {
		notFound(c, "Check", c.Param("id"))
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to read check", "details": err.Error(), "transient": true})
		return
	}
	c.JSON(http.StatusOK, res)
}
