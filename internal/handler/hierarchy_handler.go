package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/service"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

// HierarchyHandler exposes level/class/subject resolution.
type HierarchyHandler struct {
	hierarchy *service.HierarchyService
}

// NewHierarchyHandler constructs handler.
func NewHierarchyHandler(hierarchy *service.HierarchyService) *HierarchyHandler {
	return &HierarchyHandler{hierarchy: hierarchy}
}

// Levels godoc
// @Summary Resolve grade levels visible to the actor
// @Tags Hierarchy
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /levels [get]
func (h *HierarchyHandler) Levels(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	levels, err := h.hierarchy.ResolveLevels(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, levels, nil)
}

// Classes godoc
// @Summary Resolve class sections, optionally restricted to a level
// @Tags Hierarchy
// @Produce json
// @Param levelId query string false "Restrict to level"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *HierarchyHandler) Classes(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	classes, err := h.hierarchy.ResolveClasses(c.Request.Context(), actor, c.Query("levelId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// MyClasses godoc
// @Summary Flat list of the acting teacher's class sections
// @Tags Hierarchy
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes/mine [get]
func (h *HierarchyHandler) MyClasses(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	classes, err := h.hierarchy.ClassesForTeacher(c.Request.Context(), actor.SubjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// Subjects godoc
// @Summary List a class section's subjects with lesson counts
// @Tags Hierarchy
// @Produce json
// @Param id path string true "Class section id"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/subjects [get]
func (h *HierarchyHandler) Subjects(c *gin.Context) {
	subjects, err := h.hierarchy.ResolveSubjects(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}
