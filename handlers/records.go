package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lankasafe-hq/filter"
	"lankasafe-hq/notify"
	"lankasafe-hq/types"
)

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handlers) listQuery(c *gin.Context) (filter.Query, bool) {
	district, ok := h.validDistrict(c)
	if !ok {
		return filter.Query{}, false
	}
	bucket, err := filter.ParseBucket(c.Query("bucket"))
	if err != nil {
		badRequest(c, "Invalid status filter", err)
		return filter.Query{}, false
	}
	sortKey, err := filter.ParseSortKey(c.Query("sort"))
	if err != nil {
		badRequest(c, "Invalid sort", err)
		return filter.Query{}, false
	}
	return filter.Query{District: district, Bucket: bucket, Sort: sortKey}, true
}

// ListIncidents filters the current incident snapshot. Counts cover the whole
// district whatever type is selected.
func (h *Handlers) ListIncidents(c *gin.Context) {
	q, ok := h.listQuery(c)
	if !ok {
		return
	}
	res := filter.ApplyIncidents(h.Feed.Incidents(), q, c.Query("type"), h.Districts)
	c.JSON(http.StatusOK, gin.H{
		"district": q.District,
		"view":     h.Districts.View(q.District),
		"items":    res.Items,
		"counts":   res.Counts,
	})
}

func (h *Handlers) ListAidRequests(c *gin.Context) {
	q, ok := h.listQuery(c)
	if !ok {
		return
	}
	res := filter.Apply(h.Feed.AidRequests(), q, h.Districts)
	c.JSON(http.StatusOK, gin.H{
		"district": q.District,
		"view":     h.Districts.View(q.District),
		"items":    res.Items,
		"counts":   res.Counts,
	})
}

func bindActionStatus(c *gin.Context) (types.ActionStatus, bool) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required", err)
		return "", false
	}
	s, err := types.ParseActionStatus(req.Status)
	if err != nil {
		badRequest(c, "Invalid status", err)
		return "", false
	}
	return s, true
}

func (h *Handlers) UpdateIncidentStatus(c *gin.Context) {
	s, ok := bindActionStatus(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.Records.UpdateIncidentActionStatus(c.Request.Context(), id, s); err != nil {
		h.writeFailed(c, err, "update incident status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "actionStatus": s, "label": s.Label()})
}

func (h *Handlers) UpdateAidRequestStatus(c *gin.Context) {
	s, ok := bindActionStatus(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.Records.UpdateAidRequestStatus(c.Request.Context(), id, s); err != nil {
		h.writeFailed(c, err, "update aid request status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "aidStatus": s, "label": s.Label()})
}

func (h *Handlers) NotifyIncident(c *gin.Context) {
	inc, ok := h.Feed.Incident(c.Param("id"))
	if !ok {
		notFound(c, "Incident", c.Param("id"))
		return
	}
	h.notify(c, inc)
}

func (h *Handlers) NotifyAidRequest(c *gin.Context) {
	aid, ok := h.Feed.AidRequest(c.Param("id"))
	if !ok {
		notFound(c, "Aid request", c.Param("id"))
		return
	}
	h.notify(c, aid)
}

// notify answers with the routing result even on failure, so the dashboard can
// still offer the mailto handoff.
func (h *Handlers) notify(c *gin.Context, rec notify.Routable) {
	res, err := h.Router.RouteAndNotify(c.Request.Context(), rec)
	var se *notify.SendError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, res)
	case errors.Is(err, notify.ErrNoDistrictMatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "No district matched",
			"details": "Unable to determine the district from the coordinates; no officer was notified.",
			"result":  res,
		})
	case errors.Is(err, notify.ErrCooldown):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Already notified recently", "details": err.Error(), "result": res})
	case errors.As(err, &se):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     "Failed to send notification",
			"details":   se.Error(),
			"transient": true,
			"result":    res,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compose notification", "details": err.Error()})
	}
}
