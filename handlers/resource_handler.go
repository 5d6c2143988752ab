package handlers

import (
	"net/http"
	"strings"

	"parentguide-backend/i18n"
	"parentguide-backend/service"

	"github.com/gin-gonic/gin"
)

// ResourceHandler serves catalog lookups without an AI call
type ResourceHandler struct {
	guidanceService *service.GuidanceService
}

// NewResourceHandler creates a new resource handler
func NewResourceHandler(guidanceService *service.GuidanceService) *ResourceHandler {
	return &ResourceHandler{guidanceService: guidanceService}
}

// ListResources handles GET /api/resources?location=&q=&lang=
func (h *ResourceHandler) ListResources(c *gin.Context) {
	location := strings.TrimSpace(c.Query("location"))
	text := strings.TrimSpace(c.Query("q"))
	if location == "" && text == "" {
		errorResponse(c, http.StatusBadRequest, "MISSING_QUERY", "location or q is required")
		return
	}
	lang := i18n.Match(c.Query("lang"), c.GetHeader("Accept-Language"))

	res := h.guidanceService.MatchResources(location, text)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"language":           lang,
			"region":             res.Region,
			"county":             res.County,
			"total":              res.Total(),
			"resources_by_level": res.ByLevel,
			"emergency_contacts": h.guidanceService.EmergencyContacts(res.Region),
		},
	})
}
