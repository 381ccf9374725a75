package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kubev2v/asset-agent/internal/models"
)

// AssetWriter is the subset of the asset service used by imports.
type AssetWriter interface {
	Upsert(ctx context.Context, asset models.Asset, isUpdate bool, groupIDs ...int64) (int64, error)
	AddToGroups(ctx context.Context, name string, groups ...string) (int, error)
	AddPowerLink(ctx context.Context, src, dest, srcOut, destIn string) error
}

type Result struct {
	Assets     int
	GroupLinks int
	PowerLinks int
}

type Importer struct {
	writer AssetWriter
}

func NewImporter(w AssetWriter) *Importer {
	return &Importer{writer: w}
}

// Import upserts every asset, then the group memberships, then the power links.
// Groups are linked after all assets exist so a file may reference groups defined later.
func (i *Importer) Import(ctx context.Context, f *File) (Result, error) {
	log := zap.S().Named("inventory")

	items, err := f.Items()
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, it := range items {
		id, err := i.writer.Upsert(ctx, it.Asset, true)
		if err != nil {
			return res, fmt.Errorf("failed to import asset %q: %w", it.Asset.InternalName, err)
		}
		log.Debugw("asset imported", "name", it.Asset.InternalName, "id", id)
		res.Assets++
	}

	for _, it := range items {
		if len(it.Groups) == 0 {
			continue
		}
		n, err := i.writer.AddToGroups(ctx, it.Asset.InternalName, it.Groups...)
		if err != nil {
			return res, fmt.Errorf("failed to link %q to groups: %w", it.Asset.InternalName, err)
		}
		res.GroupLinks += n
	}

	for _, l := range f.PowerLinks {
		if err := i.writer.AddPowerLink(ctx, l.Src, l.Dest, l.SrcOut, l.DestIn); err != nil {
			return res, fmt.Errorf("failed to link power %s -> %s: %w", l.Src, l.Dest, err)
		}
		res.PowerLinks++
	}

	log.Infow("inventory imported", "assets", res.Assets, "group_links", res.GroupLinks, "power_links", res.PowerLinks)
	return res, nil
}
