package models

import "fmt"

type AssetType string

const (
	AssetTypeGroup      AssetType = "group"
	AssetTypeDatacenter AssetType = "datacenter"
	AssetTypeRoom       AssetType = "room"
	AssetTypeRow        AssetType = "row"
	AssetTypeRack       AssetType = "rack"
	AssetTypeDevice     AssetType = "device"
)

type AssetSubtype string

const (
	SubtypeUPS            AssetSubtype = "ups"
	SubtypeGenset         AssetSubtype = "genset"
	SubtypeEPDU           AssetSubtype = "epdu"
	SubtypePDU            AssetSubtype = "pdu"
	SubtypeServer         AssetSubtype = "server"
	SubtypeFeed           AssetSubtype = "feed"
	SubtypeSTS            AssetSubtype = "sts"
	SubtypeSwitch         AssetSubtype = "switch"
	SubtypeStorage        AssetSubtype = "storage"
	SubtypeVirtual        AssetSubtype = "virtual"
	SubtypeSensor         AssetSubtype = "sensor"
	SubtypeRouter         AssetSubtype = "router"
	SubtypeRackController AssetSubtype = "rack-controller"
	SubtypeNA             AssetSubtype = "n/a"
)

// Type and subtype ids are part of the persisted schema and must not be renumbered.
var assetTypeIDs = map[AssetType]int{
	AssetTypeGroup:      1,
	AssetTypeDatacenter: 2,
	AssetTypeRoom:       3,
	AssetTypeRow:        4,
	AssetTypeRack:       5,
	AssetTypeDevice:     6,
}

var assetSubtypeIDs = map[AssetSubtype]int{
	SubtypeUPS:            1,
	SubtypeGenset:         2,
	SubtypeEPDU:           3,
	SubtypePDU:            4,
	SubtypeServer:         5,
	SubtypeFeed:           6,
	SubtypeSTS:            7,
	SubtypeSwitch:         8,
	SubtypeStorage:        9,
	SubtypeVirtual:        10,
	SubtypeNA:             11,
	SubtypeSensor:         12,
	SubtypeRouter:         13,
	SubtypeRackController: 14,
}

func ParseAssetType(s string) (AssetType, error) {
	t := AssetType(s)
	if _, ok := assetTypeIDs[t]; !ok {
		return "", fmt.Errorf("invalid asset type: %s", s)
	}
	return t, nil
}

func ParseAssetSubtype(s string) (AssetSubtype, error) {
	// empty subtype is stored as n/a
	if s == "" {
		return SubtypeNA, nil
	}
	st := AssetSubtype(s)
	if _, ok := assetSubtypeIDs[st]; !ok {
		return "", fmt.Errorf("invalid asset subtype: %s", s)
	}
	return st, nil
}

func (t AssetType) ID() int {
	return assetTypeIDs[t]
}

func (s AssetSubtype) ID() int {
	return assetSubtypeIDs[s]
}

func AssetTypeFromID(id int) (AssetType, bool) {
	for t, tid := range assetTypeIDs {
		if tid == id {
			return t, true
		}
	}
	return "", false
}

func AssetSubtypeFromID(id int) (AssetSubtype, bool) {
	for s, sid := range assetSubtypeIDs {
		if sid == id {
			return s, true
		}
	}
	return "", false
}

type AssetStatus string

const (
	AssetStatusActive    AssetStatus = "active"
	AssetStatusNonActive AssetStatus = "nonactive"
	AssetStatusSpare     AssetStatus = "spare"
	AssetStatusRetired   AssetStatus = "retired"
)

func ParseAssetStatus(s string) (AssetStatus, error) {
	switch s {
	case "", "active":
		return AssetStatusActive, nil
	case "nonactive":
		return AssetStatusNonActive, nil
	case "spare":
		return AssetStatusSpare, nil
	case "retired":
		return AssetStatusRetired, nil
	default:
		return "", fmt.Errorf("invalid asset status: %s", s)
	}
}

// PowerDirection selects which side of the power graph a topology query walks.
type PowerDirection string

const (
	// PowerUpstream - what powers the asset
	PowerUpstream PowerDirection = "upstream"
	// PowerDownstream - what the asset powers
	PowerDownstream PowerDirection = "downstream"
)

func ParsePowerDirection(s string) (PowerDirection, error) {
	switch s {
	case "", "upstream", "from":
		return PowerUpstream, nil
	case "downstream", "to":
		return PowerDownstream, nil
	default:
		return "", fmt.Errorf("invalid power direction: %s", s)
	}
}
