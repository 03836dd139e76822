package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/middleware"
)

type ProfileHandler struct {
	svc ProfileService
	log *slog.Logger
}

func NewProfileHandler(svc ProfileService, log *slog.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, log: log}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.svc.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ProfileResponse{User: profile})
}

// Update accepts multipart/form-data (or urlencoded) fields keyed by the
// profile and address JSON names. Absent fields are left unchanged.
func (h *ProfileHandler) Update(c *gin.Context) {
	if c.ContentType() == "multipart/form-data" {
		if err := c.Request.ParseMultipartForm(1 << 20); err != nil {
			badRequest(c, "invalid form")
			return
		}
	}
	req := dto.ParseProfileForm(c.GetPostForm)

	profile, err := h.svc.Update(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ProfileResponse{User: profile})
}
