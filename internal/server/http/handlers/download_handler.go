package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/plan2d/fulfillment/internal/domain/errors"
	"github.com/plan2d/fulfillment/internal/server/http/dto"
)

// DownloadHandler serves the token-authenticated download gate.
type DownloadHandler struct {
	facade DownloadFacade
}

// NewDownloadHandler constructs DownloadHandler.
func NewDownloadHandler(facade DownloadFacade) *DownloadHandler {
	return &DownloadHandler{facade: facade}
}

// Download handles GET /api/download/:token. Denials carry a machine
// readable reason; translating them into human text is the presentation
// layer's job.
func (h *DownloadHandler) Download(c *gin.Context) {
	grant, err := h.facade.AuthorizeDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrTokenNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrNotCompleted):
			c.JSON(http.StatusForbidden, dto.DenialResponse{Reason: dto.DenialNotCompleted})
		case errors.Is(err, domainErrors.ErrAccessExpired):
			c.JSON(http.StatusForbidden, dto.DenialResponse{Reason: dto.DenialExpired})
		case errors.Is(err, domainErrors.ErrDownloadLimit):
			c.JSON(http.StatusForbidden, dto.DenialResponse{Reason: dto.DenialLimitExceeded})
		case errors.Is(err, domainErrors.ErrAssetUnavailable):
			c.JSON(http.StatusForbidden, dto.DenialResponse{Reason: dto.DenialAssetUnavailable})
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, dto.DownloadResponse{
		URL:                grant.Asset.URL,
		Filename:           grant.Asset.Filename,
		ExpiresAt:          grant.Asset.ExpiresAt,
		DownloadsRemaining: grant.Order.DownloadsRemaining(),
	})
}
