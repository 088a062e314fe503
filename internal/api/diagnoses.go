package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Activ8Auto/ProAutoFill/internal/domain"
)

// ListDiagnoses returns the templates and any exclusion groups used twice.
func (h *Handler) ListDiagnoses(c *gin.Context) {
	entries, err := h.deps.Diagnoses.List(c.Request.Context(), currentSession(c).Token)
	if err != nil {
		h.respondError(c, err, "load diagnoses")
		return
	}
	conflicts := domain.ExclusionConflicts(entries)
	if conflicts == nil {
		conflicts = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"diagnoses":           entries,
		"count":               len(entries),
		"exclusion_conflicts": conflicts,
	})
}

// CreateDiagnosis stores a new diagnosis template for the caller.
func (h *Handler) CreateDiagnosis(c *gin.Context) {
	var draft domain.DiagnosisEntry
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}

	created, err := h.deps.Diagnoses.Create(c.Request.Context(), currentSession(c), draft)
	if err != nil {
		h.respondError(c, err, "create diagnosis")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateDiagnosis replaces diagnosis :id.
func (h *Handler) UpdateDiagnosis(c *gin.Context) {
	var draft domain.DiagnosisEntry
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}

	updated, err := h.deps.Diagnoses.Update(c.Request.Context(), currentSession(c), c.Param("id"), draft)
	if err != nil {
		h.respondError(c, err, "update diagnosis")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteDiagnosis removes diagnosis :id.
func (h *Handler) DeleteDiagnosis(c *gin.Context) {
	if err := h.deps.Diagnoses.Delete(c.Request.Context(), currentSession(c), c.Param("id")); err != nil {
		h.respondError(c, err, "delete diagnosis")
		return
	}
	c.Status(http.StatusNoContent)
}
