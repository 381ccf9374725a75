package inventory

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kubev2v/asset-agent/internal/models"
	srvErrors "github.com/kubev2v/asset-agent/pkg/errors"
)

// File is the on-disk inventory. JSON documents are accepted too since they are valid YAML.
type File struct {
	Assets     []Entry     `yaml:"assets"`
	PowerLinks []PowerLink `yaml:"power_links"`
}

type Entry struct {
	Name     string   `yaml:"name"`
	Ename    string   `yaml:"ename"`
	Type     string   `yaml:"type"`
	Subtype  string   `yaml:"subtype"`
	Status   string   `yaml:"status"`
	Priority int      `yaml:"priority"`
	Parent   string   `yaml:"parent"`
	Groups   []string `yaml:"groups"`
	// Ext uses the list form: [{"serial_no": "ABC", "read_only": true}]
	Ext any `yaml:"ext"`
}

type PowerLink struct {
	Src    string `yaml:"src"`
	Dest   string `yaml:"dest"`
	SrcOut string `yaml:"src_out"`
	DestIn string `yaml:"dest_in"`
}

// Item is a validated inventory entry ready to be upserted.
type Item struct {
	Asset  models.Asset
	Groups []string
}

func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory file %q: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (*File, error) {
	var inv File
	if err := yaml.NewDecoder(r).Decode(&inv); err != nil {
		if err == io.EOF {
			return &inv, nil
		}
		return nil, srvErrors.NewInvalidFormatError("failed to decode inventory: %v", err)
	}
	return &inv, nil
}

// Items validates the entries and returns them ordered so that parents come first.
func (f *File) Items() ([]Item, error) {
	items := make([]Item, 0, len(f.Assets))
	for _, e := range f.Assets {
		item, err := e.toItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return orderByParent(items)
}

func (e Entry) toItem() (Item, error) {
	if e.Name == "" {
		return Item{}, srvErrors.NewInvalidFormatError("inventory entry without name")
	}

	assetType, err := models.ParseAssetType(e.Type)
	if err != nil {
		return Item{}, srvErrors.NewInvalidFormatError("asset %q: %v", e.Name, err)
	}
	subtype, err := models.ParseAssetSubtype(e.Subtype)
	if err != nil {
		return Item{}, srvErrors.NewInvalidFormatError("asset %q: %v", e.Name, err)
	}
	status, err := models.ParseAssetStatus(e.Status)
	if err != nil {
		return Item{}, srvErrors.NewInvalidFormatError("asset %q: %v", e.Name, err)
	}

	asset := models.NewAsset(e.Name, assetType, subtype)
	asset.Status = status
	asset.ExternalName = e.Ename
	asset.ParentIname = e.Parent
	if e.Priority != 0 {
		asset.Priority = e.Priority
	}

	if e.Ext != nil {
		ext, err := models.ParseExtAttributes(e.Ext)
		if err != nil {
			return Item{}, fmt.Errorf("asset %q: %w", e.Name, err)
		}
		if n, ok := ext[models.ExtNameKey]; ok {
			if asset.ExternalName == "" {
				asset.ExternalName = n.Value
			}
			delete(ext, models.ExtNameKey)
		}
		ext.ApplyWritableOverride()
		asset.ExtAttributes = ext
	}

	return Item{Asset: asset, Groups: e.Groups}, nil
}

// orderByParent sorts items so every parent defined in the file precedes its children.
// Parents not defined in the file are expected to exist already.
func orderByParent(items []Item) ([]Item, error) {
	byName := make(map[string]int, len(items))
	for i, it := range items {
		if _, dup := byName[it.Asset.InternalName]; dup {
			return nil, srvErrors.NewInvalidFormatError("asset %q defined twice", it.Asset.InternalName)
		}
		byName[it.Asset.InternalName] = i
	}

	depth := make([]int, len(items))
	for i := range items {
		d := 0
		cur := i
		for {
			p, ok := byName[items[cur].Asset.ParentIname]
			if !ok || !items[cur].Asset.HasParent() {
				break
			}
			d++
			if d > len(items) {
				return nil, srvErrors.NewCycleDetectedError(0, d)
			}
			cur = p
		}
		depth[i] = d
	}

	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return depth[idx[a]] < depth[idx[b]] })

	ordered := make([]Item, 0, len(items))
	for _, i := range idx {
		ordered = append(ordered, items[i])
	}
	return ordered, nil
}
