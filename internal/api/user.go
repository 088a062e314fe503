package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Activ8Auto/ProAutoFill/internal/domain"
)

// GetDefaults returns the caller's form defaults.
func (h *Handler) GetDefaults(c *gin.Context) {
	values, err := h.deps.Defaults.Get(c.Request.Context(), currentSession(c))
	if err != nil {
		h.respondError(c, err, "load defaults")
		return
	}
	if values == nil {
		values = domain.UserDefaults{}
	}
	c.JSON(http.StatusOK, gin.H{"default_values": values})
}

// SetDefault stores {key, value}; 409 when value is already the default.
func (h *Handler) SetDefault(c *gin.Context) {
	req, ok := bindDefault(c)
	if !ok {
		return
	}

	values, err := h.deps.Defaults.SetDefault(c.Request.Context(), currentSession(c), req.Key, req.Value)
	if err != nil {
		h.respondError(c, err, "update defaults")
		return
	}
	c.JSON(http.StatusOK, gin.H{"default_values": values})
}

// GetProfileInfo returns the caller's account details.
func (h *Handler) GetProfileInfo(c *gin.Context) {
	info, err := h.deps.ProfileInfo.Get(c.Request.Context(), currentSession(c))
	if err != nil {
		h.respondError(c, err, "load profile info")
		return
	}
	if info == nil {
		info = domain.ProfileInfo{}
	}
	c.JSON(http.StatusOK, info)
}

// UpdateProfileInfo saves the caller's account details.
func (h *Handler) UpdateProfileInfo(c *gin.Context) {
	var info domain.ProfileInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		badRequest(c, err)
		return
	}

	updated, err := h.deps.ProfileInfo.Update(c.Request.Context(), currentSession(c), info)
	if err != nil {
		h.respondError(c, err, "update profile info")
		return
	}
	c.JSON(http.StatusOK, updated)
}
