package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lankasafe-hq/auth"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Username and password are required", err)
		return
	}
	staff, err := h.Auth.Authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.Log.Warn("login rejected", zap.String("username", req.Username), zap.String("ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "details": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed", "details": err.Error()})
		return
	}
	staff.LoginAt = h.now()
	if err := h.Sessions.Login(c.Writer, c.Request, staff); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session", "details": err.Error()})
		return
	}
	h.Log.Info("staff signed in", zap.String("username", staff.Username))
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": staff})
}

func (h *Handlers) Logout(c *gin.Context) {
	if err := h.Sessions.Logout(c.Writer, c.Request); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear session", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

func (h *Handlers) Session(c *gin.Context) {
	staff, ok := h.Sessions.Current(c.Request)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": staff})
}
