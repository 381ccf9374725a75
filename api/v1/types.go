package v1

// Asset is the REST representation of an asset.
type Asset struct {
	Name          string         `json:"name"`
	ExternalName  string         `json:"ename,omitempty"`
	Type          string         `json:"type"`
	Subtype       string         `json:"subtype"`
	Status        string         `json:"status"`
	Priority      int            `json:"priority"`
	Parent        string         `json:"parent,omitempty"`
	ExtAttributes []ExtAttribute `json:"ext"`
}

type ExtAttribute struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	ReadOnly bool   `json:"read_only"`
}

type AssetID struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

type AssetElement struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Ename    string `json:"ename,omitempty"`
	Status   string `json:"status"`
	Priority int    `json:"priority"`
	Type     string `json:"type"`
	Subtype  string `json:"subtype"`
}

type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type PowerLink struct {
	Source      string `json:"source"`
	SourceID    int64  `json:"source_id"`
	SourceOut   string `json:"source_outlet,omitempty"`
	Destination string `json:"destination"`
	DestID      int64  `json:"destination_id"`
	DestIn      string `json:"destination_inlet,omitempty"`
}

type PowerChain struct {
	Name      string      `json:"name"`
	Direction string      `json:"direction"`
	Links     []PowerLink `json:"links"`
}

type Error struct {
	Error string `json:"error"`
}
