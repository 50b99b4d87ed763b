package handlers

import (
	"errors"
	"html"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"lankasafe-hq/filter"
	"lankasafe-hq/geocode"
	"lankasafe-hq/types"
)

func (h *Handlers) ListCamps(c *gin.Context) {
	district, ok := h.validDistrict(c)
	if !ok {
		return
	}
	approval, err := filter.ParseApproval(c.Query("approval"))
	if err != nil {
		badRequest(c, "Invalid approval filter", err)
		return
	}
	res := filter.ApplyCamps(h.Feed.Camps(), filter.CampQuery{District: district, Approval: approval}, h.Districts)
	c.JSON(http.StatusOK, gin.H{
		"district":   district,
		"view":       h.Districts.View(district),
		"items":      res.Items,
		"counts":     res.Counts,
		"facilities": types.FacilityOptions,
	})
}

// sanitizeCamp strips markup from free text and drops facilities outside the
// fixed option list. The fields are stored as plain text, so the entities the
// policy escapes are decoded again.
func sanitizeCamp(in types.NewCamp) types.NewCamp {
	clean := func(s string) string { return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s))) }
	in.Name = clean(in.Name)
	in.Address = clean(in.Address)
	in.ContactPerson = clean(in.ContactPerson)
	in.ContactPhone = clean(in.ContactPhone)
	in.Description = clean(in.Description)

	facilities := make([]string, 0, len(in.Facilities))
	for _, f := range in.Facilities {
		if slices.Contains(types.FacilityOptions, f) && !slices.Contains(facilities, f) {
			facilities = append(facilities, f)
		}
	}
	in.Facilities = facilities
	return in
}

func (h *Handlers) CreateCamp(c *gin.Context) {
	var in types.NewCamp
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid camp form", err)
		return
	}
	in = sanitizeCamp(in)

	if !in.HasCoordinates() && in.Address != "" && h.Geocoder != nil {
		place, err := h.Geocoder.Geocode(c.Request.Context(), in.Address)
		switch {
		case errors.Is(err, geocode.ErrNoResults):
			badRequest(c, "Address not found", err)
			return
		case err != nil:
			h.Log.Warn("geocoding failed", zap.String("address", in.Address), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Geocoding failed", "details": err.Error(), "transient": true})
			return
		}
		in.Latitude, in.Longitude = &place.Latitude, &place.Longitude
	}

	if err := in.Validate(); err != nil {
		badRequest(c, "Invalid camp form", err)
		return
	}

	camp, err := h.Records.CreateCamp(c.Request.Context(), "camp_"+uuid.NewString(), in)
	if err != nil {
		h.writeFailed(c, err, "create camp")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"camp":     camp,
		"district": h.Districts.Classify(camp.Latitude, camp.Longitude),
	})
}

func (h *Handlers) UpdateCampStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required", err)
		return
	}
	s, err := types.ParseCampStatus(req.Status)
	if err != nil {
		badRequest(c, "Invalid camp status", err)
		return
	}
	id := c.Param("id")
	if err := h.Records.UpdateCampStatus(c.Request.Context(), id, s); err != nil {
		h.writeFailed(c, err, "update camp status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "campStatus": s, "label": s.Label()})
}

type occupancyRequest struct {
	Occupancy *int `json:"occupancy" binding:"required"`
}

// UpdateCampOccupancy rejects values outside [0, capacity] of the camp as last seen.
func (h *Handlers) UpdateCampOccupancy(c *gin.Context) {
	var req occupancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "occupancy is required", err)
		return
	}
	id := c.Param("id")
	camp, ok := h.Feed.Camp(id)
	if !ok {
		notFound(c, "Camp", id)
		return
	}
	if err := types.ValidateOccupancy(*req.Occupancy, camp.Capacity); err != nil {
		badRequest(c, "Invalid occupancy", err)
		return
	}
	if err := h.Records.UpdateCampOccupancy(c.Request.Context(), id, *req.Occupancy); err != nil {
		h.writeFailed(c, err, "update camp occupancy")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "currentOccupancy": *req.Occupancy, "capacity": camp.Capacity})
}

type approvalRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

func bindApproval(c *gin.Context) (bool, bool) {
	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "approved is required", err)
		return false, false
	}
	return *req.Approved, true
}

func (h *Handlers) UpdateCampApproval(c *gin.Context) {
	approved, ok := bindApproval(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.Records.UpdateCampApproval(c.Request.Context(), id, approved); err != nil {
		h.writeFailed(c, err, "update camp approval")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "adminApproved": approved})
}

func (h *Handlers) ListVolunteers(c *gin.Context) {
	vs := h.Feed.Volunteers()
	c.JSON(http.StatusOK, gin.H{
		"items":  filter.SortVolunteers(vs),
		"counts": filter.CountVolunteers(vs),
	})
}

func (h *Handlers) UpdateVolunteerApproval(c *gin.Context) {
	approved, ok := bindApproval(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.Records.UpdateVolunteerApproval(c.Request.Context(), id, approved); err != nil {
		h.writeFailed(c, err, "update volunteer approval")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "approved": approved})
}
