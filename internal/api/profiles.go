package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
	"github.com/Activ8Auto/ProAutoFill/internal/domain"
)

type defaultRequest struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func bindDefault(c *gin.Context) (defaultRequest, bool) {
	var req defaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return req, false
	}
	if strings.TrimSpace(req.Key) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return req, false
	}
	return req, true
}

// ListProfiles returns the caller's profiles and the selected id.
func (h *Handler) ListProfiles(c *gin.Context) {
	snap, err := h.deps.Profiles.List(c.Request.Context(), currentSession(c))
	if err != nil {
		h.respondError(c, err, "load profiles")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profiles":    snap.Profiles(),
		"selected_id": snap.SelectedID(),
		"count":       snap.Len(),
	})
}

// CreateProfile stores a new profile and returns it with its weight report.
func (h *Handler) CreateProfile(c *gin.Context) {
	var draft domain.AutomationProfile
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}

	sess := currentSession(c)
	profile, report, err := h.deps.Profiles.Create(c.Request.Context(), sess, draft)
	if err != nil {
		h.respondError(c, err, "create profile")
		return
	}

	h.log.Info("Profile created",
		logger.String("user_id", sess.UserID),
		logger.String("profile_id", profile.ID),
		logger.Bool("weights_balanced", report.Balanced),
	)
	c.JSON(http.StatusCreated, gin.H{"profile": profile, "weights": report})
}

// UpdateProfile patches profile :id with the fields in the body.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		badRequest(c, err)
		return
	}
	profile, err := h.deps.Profiles.Update(c.Request.Context(), currentSession(c), c.Param("id"), fields)
	if err != nil {
		h.respondError(c, err, "update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// DeleteProfile removes profile :id.
func (h *Handler) DeleteProfile(c *gin.Context) {
	snap, err := h.deps.Profiles.Delete(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "delete profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected_id": snap.SelectedID(), "count": snap.Len()})
}

// SelectProfile makes :id the profile runs use.
func (h *Handler) SelectProfile(c *gin.Context) {
	profile, err := h.deps.Profiles.Select(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "select profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// SelectedProfile returns the selected profile, or 404.
func (h *Handler) SelectedProfile(c *gin.Context) {
	profile, ok := h.deps.Profiles.Selected(currentSession(c))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No profile selected"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ProfileTemplate returns the values a new-profile form starts from.
func (h *Handler) ProfileTemplate(c *gin.Context) {
	c.JSON(http.StatusOK, domain.NewProfileTemplate())
}

// SetProfileDefault stores one default on profile :id.
func (h *Handler) SetProfileDefault(c *gin.Context) {
	req, ok := bindDefault(c)
	if !ok {
		return
	}

	values, err := h.deps.Defaults.SetProfileDefault(c.Request.Context(), currentSession(c), c.Param("id"), req.Key, req.Value)
	if err != nil {
		h.respondError(c, err, "update profile defaults")
		return
	}
	c.JSON(http.StatusOK, gin.H{"default_values": values})
}

// RunAutomation starts a run with {profile_id}, or with the selected
// profile when the body is empty.
func (h *Handler) RunAutomation(c *gin.Context) {
	var req domain.RunTrigger
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	result, err := h.deps.Profiles.Run(c.Request.Context(), currentSession(c), req.ProfileID)
	if err != nil {
		h.respondError(c, err, "start automation")
		return
	}
	c.JSON(http.StatusAccepted, result)
}
