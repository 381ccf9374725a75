package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/kubev2v/asset-agent/api/v1"
	"github.com/kubev2v/asset-agent/internal/models"
	srvErrors "github.com/kubev2v/asset-agent/pkg/errors"
)

// GetAsset returns the full asset
// (GET /assets/:name)
func (h *Handler) GetAsset(c *gin.Context) {
	asset, err := h.assetSrv.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, "failed to get asset", err)
		return
	}
	c.JSON(http.StatusOK, v1.NewAssetFromModel(asset))
}

// GetAssetID resolves the internal name to its database id
// (GET /assets/:name/id)
func (h *Handler) GetAssetID(c *gin.Context) {
	name := c.Param("name")
	id, err := h.assetSrv.NameToAssetID(c.Request.Context(), name)
	if err != nil {
		respondError(c, "failed to resolve asset id", err)
		return
	}
	c.JSON(http.StatusOK, v1.AssetID{Name: name, ID: id})
}

// GetParents returns the ancestors, nearest first
// (GET /assets/:name/parents)
func (h *Handler) GetParents(c *gin.Context) {
	parents, err := h.assetSrv.Parents(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, "failed to walk parents", err)
		return
	}

	out := make([]v1.AssetElement, 0, len(parents))
	for _, p := range parents {
		out = append(out, v1.NewAssetElementFromModel(p))
	}
	c.JSON(http.StatusOK, out)
}

// GetGroups returns the groups the asset belongs to
// (GET /assets/:name/groups)
func (h *Handler) GetGroups(c *gin.Context) {
	groups, err := h.assetSrv.Groups(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, "failed to list groups", err)
		return
	}
	c.JSON(http.StatusOK, v1.NewGroupsFromModel(groups))
}

// GetPowerChain returns the power links feeding or fed by the asset
// (GET /assets/:name/power?direction=upstream|downstream)
func (h *Handler) GetPowerChain(c *gin.Context) {
	name := c.Param("name")
	direction, err := models.ParsePowerDirection(c.DefaultQuery("direction", string(models.PowerUpstream)))
	if err != nil {
		respondError(c, "invalid direction", srvErrors.NewInvalidFormatError("%v", err))
		return
	}

	links, err := h.assetSrv.PowerTopology(c.Request.Context(), name, direction)
	if err != nil {
		respondError(c, "failed to read power topology", err)
		return
	}
	c.JSON(http.StatusOK, v1.NewPowerChainFromModel(name, direction, links))
}

// GetByExternalName resolves an external name to the internal one
// (GET /ename/:ename)
func (h *Handler) GetByExternalName(c *gin.Context) {
	ctx := c.Request.Context()
	ename := c.Param("ename")

	name, err := h.assetSrv.ExtNameToAssetName(ctx, ename)
	if err != nil {
		respondError(c, "failed to resolve external name", err)
		return
	}
	id, err := h.assetSrv.ExtNameToAssetID(ctx, ename)
	if err != nil {
		respondError(c, "failed to resolve external name", err)
		return
	}
	c.JSON(http.StatusOK, v1.AssetID{Name: name, ID: id})
}
