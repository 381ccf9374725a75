package v1

import (
	"sort"

	"github.com/kubev2v/asset-agent/internal/models"
)

// NewAssetFromModel converts a models.Asset to an API Asset.
func NewAssetFromModel(a models.Asset) Asset {
	apiAsset := Asset{
		Name:          a.InternalName,
		ExternalName:  a.ExternalName,
		Type:          string(a.Type),
		Subtype:       string(a.Subtype),
		Status:        string(a.Status),
		Priority:      a.Priority,
		ExtAttributes: make([]ExtAttribute, 0, len(a.ExtAttributes)),
	}
	if a.HasParent() {
		apiAsset.Parent = a.ParentIname
	}
	for _, k := range a.ExtAttributes.Keys() {
		v := a.ExtAttributes[k]
		apiAsset.ExtAttributes = append(apiAsset.ExtAttributes, ExtAttribute{Key: k, Value: v.Value, ReadOnly: v.ReadOnly})
	}
	return apiAsset
}

// NewAssetElementFromModel converts a persisted row, mapping type ids back to names.
func NewAssetElementFromModel(e models.AssetElement) AssetElement {
	t, _ := models.AssetTypeFromID(e.TypeID)
	st, _ := models.AssetSubtypeFromID(e.SubtypeID)
	return AssetElement{
		ID:       e.ID,
		Name:     e.Name,
		Ename:    e.ExternalName,
		Status:   string(e.Status),
		Priority: e.Priority,
		Type:     string(t),
		Subtype:  string(st),
	}
}

// NewGroupsFromModel converts a group id to name map, sorted by id.
func NewGroupsFromModel(groups map[int64]string) []Group {
	out := make([]Group, 0, len(groups))
	for id, name := range groups {
		out = append(out, Group{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func NewPowerChainFromModel(name string, direction models.PowerDirection, links []models.PowerLink) PowerChain {
	chain := PowerChain{
		Name:      name,
		Direction: string(direction),
		Links:     make([]PowerLink, 0, len(links)),
	}
	for _, l := range links {
		chain.Links = append(chain.Links, PowerLink{
			Source:      l.SrcName,
			SourceID:    l.SrcID,
			SourceOut:   l.SrcOut,
			Destination: l.DestName,
			DestID:      l.DestID,
			DestIn:      l.DestIn,
		})
	}
	return chain
}
