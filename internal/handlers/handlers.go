package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/kubev2v/asset-agent/api/v1"
	"github.com/kubev2v/asset-agent/internal/services"
	srvErrors "github.com/kubev2v/asset-agent/pkg/errors"
)

type Handler struct {
	assetSrv *services.AssetService
}

func New(assetSrv *services.AssetService) *Handler {
	return &Handler{
		assetSrv: assetSrv,
	}
}

// RegisterHandlers wires the lookup routes onto router.
func RegisterHandlers(router gin.IRouter, h *Handler) {
	router.GET("/assets/:name", h.GetAsset)
	router.GET("/assets/:name/id", h.GetAssetID)
	router.GET("/assets/:name/parents", h.GetParents)
	router.GET("/assets/:name/groups", h.GetGroups)
	router.GET("/assets/:name/power", h.GetPowerChain)
	router.GET("/ename/:ename", h.GetByExternalName)
}

func respondError(c *gin.Context, op string, err error) {
	switch {
	case srvErrors.IsElementNotFoundError(err):
		c.JSON(http.StatusNotFound, v1.Error{Error: err.Error()})
	case srvErrors.IsInvalidFormatError(err):
		c.JSON(http.StatusBadRequest, v1.Error{Error: err.Error()})
	default:
		zap.S().Named("asset_handler").Errorw(op, "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: err.Error()})
	}
}
