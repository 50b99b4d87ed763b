package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lankasafe-hq/districts"
	"lankasafe-hq/filter"
)

func (h *Handlers) ListDistricts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":   h.Districts.Version(),
		"all":       districts.AllDistricts,
		"allView":   h.Districts.View(districts.AllDistricts),
		"districts": h.Districts.Districts(),
	})
}

// ClassifyPoint exposes the same classifier the filters and the notifier use.
func (h *Handlers) ClassifyPoint(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		badRequest(c, "lat and lng must be numbers", fmt.Errorf("lat=%q lng=%q", c.Query("lat"), c.Query("lng")))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"district": h.Districts.Classify(lat, lng),
		"matches":  h.Districts.Matches(lat, lng),
	})
}

// validDistrict accepts the wildcard, Unknown, or a table name.
func (h *Handlers) validDistrict(c *gin.Context) (string, bool) {
	d := c.Query("district")
	if districts.IsAll(d) || d == districts.Unknown {
		return d, true
	}
	if _, ok := h.Districts.Lookup(d); !ok {
		badRequest(c, "Unknown district", fmt.Errorf("%q is not in the district table", d))
		return "", false
	}
	return d, true
}

func (h *Handlers) Overview(c *gin.Context) {
	district, ok := h.validDistrict(c)
	if !ok {
		return
	}
	stats := filter.Overview(
		filter.ByDistrict(h.Feed.Incidents(), district, h.Districts),
		filter.ByDistrict(h.Feed.AidRequests(), district, h.Districts),
		filter.ByDistrict(h.Feed.Camps(), district, h.Districts),
		h.now(), h.Location,
	)
	c.JSON(http.StatusOK, gin.H{
		"district": district,
		"view":     h.Districts.View(district),
		"stats":    stats,
	})
}
