package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kubev2v/asset-agent/internal/message"
	"github.com/kubev2v/asset-agent/internal/models"
	srvErrors "github.com/kubev2v/asset-agent/pkg/errors"
)

// TestParentName replaces the parent of decoded assets when parent lookups are disabled.
const TestParentName = "test-parent"

// Resolver translates between internal names and numeric ids.
type Resolver interface {
	NameToAssetID(ctx context.Context, name string) (int64, error)
	IDToNameExtName(ctx context.Context, id int64) (string, string, error)
}

// Converter turns assets into bus messages and back.
type Converter struct {
	resolver Resolver
	testMode bool
}

func NewConverter(r Resolver, testMode bool) *Converter {
	return &Converter{resolver: r, testMode: testMode}
}

// ToMessage builds the wire form of asset. Failing to resolve the parent fails the conversion.
func (c *Converter) ToMessage(ctx context.Context, asset models.Asset, op message.Operation) (*message.Message, error) {
	m := message.New(asset.InternalName, op)
	m.Aux[message.AuxPriority] = strconv.Itoa(asset.Priority)
	m.Aux[message.AuxType] = string(asset.Type)
	m.Aux[message.AuxSubtype] = string(asset.Subtype)
	m.Aux[message.AuxStatus] = string(asset.Status)
	m.Aux[message.AuxParent] = models.NoParentID

	if asset.HasParent() {
		if c.testMode {
			m.Aux[message.AuxParent] = asset.ParentIname
		} else {
			id, err := c.resolver.NameToAssetID(ctx, asset.ParentIname)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve parent of %q: %w", asset.InternalName, err)
			}
			m.Aux[message.AuxParent] = strconv.FormatInt(id, 10)
		}
	}

	for k, v := range asset.ExtAttributes {
		m.Ext[k] = v.Value
	}
	if asset.ExternalName != "" {
		m.Ext[models.ExtNameKey] = asset.ExternalName
	}
	return m, nil
}

// FromMessage decodes an asset. Ext attributes get readOnly as default flag; the
// always-writable keys are reset afterwards.
func (c *Converter) FromMessage(ctx context.Context, m *message.Message, readOnly bool) (models.Asset, error) {
	if m.Kind != message.KindAsset {
		return models.Asset{}, srvErrors.NewWrongMessageTypeError(message.KindAsset, m.Kind)
	}

	asset := models.NewAsset(m.Name, "", "")

	status, err := models.ParseAssetStatus(m.Aux[message.AuxStatus])
	if err != nil {
		return models.Asset{}, srvErrors.NewInvalidFormatError("%v", err)
	}
	asset.Status = status

	if p := m.Aux[message.AuxPriority]; p != "" {
		priority, err := strconv.Atoi(p)
		if err != nil {
			return models.Asset{}, srvErrors.NewInvalidFormatError("invalid priority %q", p)
		}
		asset.Priority = priority
	}

	if t := m.Aux[message.AuxType]; t != "" {
		assetType, err := models.ParseAssetType(t)
		if err != nil {
			return models.Asset{}, srvErrors.NewInvalidFormatError("%v", err)
		}
		asset.Type = assetType
	}

	subtype, err := models.ParseAssetSubtype(m.Aux[message.AuxSubtype])
	if err != nil {
		return models.Asset{}, srvErrors.NewInvalidFormatError("%v", err)
	}
	asset.Subtype = subtype

	if p := m.Aux[message.AuxParent]; p != "" && p != models.NoParentID {
		// test mode carries parent names, not ids
		if c.testMode {
			asset.ParentIname = TestParentName
		} else {
			parentID, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				return models.Asset{}, srvErrors.NewInvalidFormatError("invalid parent id %q", p)
			}
			name, _, err := c.resolver.IDToNameExtName(ctx, parentID)
			if err != nil {
				return models.Asset{}, fmt.Errorf("failed to resolve parent of %q: %w", m.Name, err)
			}
			asset.ParentIname = name
		}
	}

	for k, v := range m.Ext {
		if k == models.ExtNameKey {
			asset.ExternalName = v
			continue
		}
		asset.ExtAttributes[k] = models.NewExtAttribute(v, readOnly)
	}
	asset.ExtAttributes.ApplyWritableOverride()

	return asset, nil
}
