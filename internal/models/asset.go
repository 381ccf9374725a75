package models

import "maps"

const (
	DefaultPriority = 5

	// NoParentID is the parent id carried by root assets.
	NoParentID = "0"
)

// Asset is the in-memory representation of one directory entry.
type Asset struct {
	InternalName  string
	ExternalName  string
	Type          AssetType
	Subtype       AssetSubtype
	Status        AssetStatus
	Priority      int
	ParentIname   string
	ExtAttributes ExtAttributes
}

func NewAsset(iname string, t AssetType, st AssetSubtype) Asset {
	return Asset{
		InternalName:  iname,
		Type:          t,
		Subtype:       st,
		Status:        AssetStatusActive,
		Priority:      DefaultPriority,
		ExtAttributes: ExtAttributes{},
	}
}

// Equal compares every field, ext attributes included. WasUpdated is transient and ignored.
func (a Asset) Equal(o Asset) bool {
	if a.InternalName != o.InternalName ||
		a.ExternalName != o.ExternalName ||
		a.Type != o.Type ||
		a.Subtype != o.Subtype ||
		a.Status != o.Status ||
		a.Priority != o.Priority ||
		a.ParentIname != o.ParentIname {
		return false
	}
	return maps.EqualFunc(a.ExtAttributes, o.ExtAttributes, func(x, y ExtAttribute) bool {
		return x.Value == y.Value && x.ReadOnly == y.ReadOnly
	})
}

func (a Asset) HasParent() bool {
	return a.ParentIname != "" && a.ParentIname != NoParentID
}

// AssetElement is the canonical persisted row of an asset.
type AssetElement struct {
	ID           int64
	Name         string
	ExternalName string
	Status       AssetStatus
	Priority     int
	TypeID       int
	SubtypeID    int
	// ParentID is 0 for root assets.
	ParentID int64
}

// ShortElement is an AssetElement reduced for listings.
type ShortElement struct {
	ID        int64
	Name      string
	SubtypeID int
}

// PowerLink connects an outlet of a power source to an inlet of the powered asset.
type PowerLink struct {
	SrcID    int64
	SrcName  string
	SrcOut   string
	DestID   int64
	DestName string
	DestIn   string
}

func cloneExt(ext ExtAttributes) ExtAttributes {
	if ext == nil {
		return ExtAttributes{}
	}
	return maps.Clone(ext)
}

// Clone returns a copy that does not share the ext attribute map.
func (a Asset) Clone() Asset {
	c := a
	c.ExtAttributes = cloneExt(a.ExtAttributes)
	return c
}
