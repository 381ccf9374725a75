package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/kubev2v/asset-agent/internal/models"
	"github.com/kubev2v/asset-agent/internal/store"
	srvErrors "github.com/kubev2v/asset-agent/pkg/errors"
)

const (
	upsertMaxTries        = 5
	upsertInitialInterval = 20 * time.Millisecond
)

// AssetService runs the directory operations against the store. Every mutating
// operation executes in a single transaction.
type AssetService struct {
	store *store.Store
	log   *zap.SugaredLogger
}

func NewAssetService(st *store.Store) *AssetService {
	return &AssetService{store: st, log: zap.S().Named("asset_service")}
}

// Upsert writes the asset row, merges its ext attributes and links it to groupIDs.
//
// Creating an existing asset fails with a ConflictError. Updates that lose a race
// against a concurrent writer are retried.
func (s *AssetService) Upsert(ctx context.Context, asset models.Asset, isUpdate bool, groupIDs ...int64) (int64, error) {
	operation := func() (int64, error) {
		var id int64
		err := s.store.WithTx(ctx, func(tx *store.Store) error {
			var err error
			id, err = tx.Asset().InsertAsset(ctx, asset, isUpdate)
			if err != nil {
				return err
			}
			n, err := tx.ExtAttributes().Insert(ctx, id, asset.ExtAttributes)
			if err != nil {
				return err
			}
			s.log.Debugw("ext attributes merged", "asset", asset.InternalName, "written", n)
			if len(groupIDs) > 0 {
				if _, err := tx.Group().AddToGroups(ctx, id, groupIDs); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil && !(isUpdate && isTransientConflict(err)) {
			return 0, backoff.Permanent(err)
		}
		return id, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = upsertInitialInterval

	id, err := backoff.Retry(ctx, operation, backoff.WithBackOff(b), backoff.WithMaxTries(upsertMaxTries))
	if err != nil {
		return 0, err
	}
	s.log.Infow("asset stored", "asset", asset.InternalName, "id", id, "update", isUpdate)
	return id, nil
}

// isTransientConflict reports conflicts raised by the database, as opposed to
// conflicts detected by a rule check which would fail again.
func isTransientConflict(err error) bool {
	var c *srvErrors.ConflictError
	return errors.As(err, &c) && c.Err != nil
}

// Get loads the full asset, ext attributes and parent name included.
func (s *AssetService) Get(ctx context.Context, name string) (models.Asset, error) {
	el, err := s.store.Asset().SelectByName(ctx, name)
	if err != nil {
		return models.Asset{}, err
	}

	t, ok := models.AssetTypeFromID(el.TypeID)
	if !ok {
		return models.Asset{}, srvErrors.NewInternalError("get asset", fmt.Errorf("asset %q has unknown type id %d", name, el.TypeID))
	}
	st, ok := models.AssetSubtypeFromID(el.SubtypeID)
	if !ok {
		return models.Asset{}, srvErrors.NewInternalError("get asset", fmt.Errorf("asset %q has unknown subtype id %d", name, el.SubtypeID))
	}
	asset := models.NewAsset(el.Name, t, st)
	asset.ExternalName = el.ExternalName
	asset.Status = el.Status
	asset.Priority = el.Priority

	if el.ParentID != 0 {
		parent, _, err := s.store.Asset().IDToNameExtName(ctx, el.ParentID)
		if err != nil {
			return models.Asset{}, err
		}
		asset.ParentIname = parent
	}

	asset.ExtAttributes, err = s.store.ExtAttributes().Get(ctx, el.ID)
	if err != nil {
		return models.Asset{}, err
	}
	return asset, nil
}

// Delete removes the asset with its ext attributes, group links and power links.
// An asset that still has children cannot be deleted.
func (s *AssetService) Delete(ctx context.Context, name string) (int64, error) {
	var deleted int64
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		id, err := tx.Asset().NameToAssetID(ctx, name)
		if err != nil {
			return err
		}

		children, err := tx.Asset().CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return srvErrors.NewConflictError(name, nil)
		}

		if _, err := tx.ExtAttributes().Delete(ctx, id); err != nil {
			return err
		}
		if _, err := tx.Group().DeleteLinks(ctx, id); err != nil {
			return err
		}
		if _, err := tx.Topology().DeletePowerLinks(ctx, id); err != nil {
			return err
		}
		deleted, err = tx.Asset().DeleteAsset(ctx, id)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.log.Infow("asset deleted", "asset", name)
	return deleted, nil
}

// Retire marks the asset as retired.
func (s *AssetService) Retire(ctx context.Context, name string) error {
	return s.store.WithTx(ctx, func(tx *store.Store) error {
		id, err := tx.Asset().NameToAssetID(ctx, name)
		if err != nil {
			return err
		}
		_, err = tx.Asset().UpdateStatus(ctx, id, models.AssetStatusRetired)
		return err
	})
}

// Inventory merges discovered ext attributes. They are stored read-only except
// for the always-writable keys. A "name" value becomes the external name and
// counts as one written attribute.
func (s *AssetService) Inventory(ctx context.Context, name string, values map[string]string) (int, error) {
	ext := make(models.ExtAttributes, len(values))
	var ename string
	for k, v := range values {
		if k == models.ExtNameKey {
			ename = v
			continue
		}
		ext[k] = models.NewExtAttribute(v, true)
	}
	ext.ApplyWritableOverride()

	var written int
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		id, err := tx.Asset().NameToAssetID(ctx, name)
		if err != nil {
			return err
		}
		if ename != "" {
			if _, err := tx.Asset().UpdateExternalName(ctx, id, name, ename); err != nil {
				return err
			}
			written++
		}
		n, err := tx.ExtAttributes().Insert(ctx, id, ext)
		written += n
		return err
	})
	return written, err
}

func (s *AssetService) NameToAssetID(ctx context.Context, name string) (int64, error) {
	return s.store.Asset().NameToAssetID(ctx, name)
}

func (s *AssetService) IDToNameExtName(ctx context.Context, id int64) (string, string, error) {
	return s.store.Asset().IDToNameExtName(ctx, id)
}

func (s *AssetService) ExtNameToAssetName(ctx context.Context, ename string) (string, error) {
	return s.store.Asset().ExtNameToAssetName(ctx, ename)
}

func (s *AssetService) ExtNameToAssetID(ctx context.Context, ename string) (int64, error) {
	return s.store.Asset().ExtNameToAssetID(ctx, ename)
}

// Groups returns the direct groups of the named asset.
func (s *AssetService) Groups(ctx context.Context, name string) (map[int64]string, error) {
	id, err := s.store.Asset().NameToAssetID(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.store.Group().GroupsOf(ctx, id)
}

// AddToGroups links the named asset to the named groups.
func (s *AssetService) AddToGroups(ctx context.Context, name string, groups ...string) (int, error) {
	var added int
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		id, err := tx.Asset().NameToAssetID(ctx, name)
		if err != nil {
			return err
		}
		groupIDs := make([]int64, 0, len(groups))
		for _, g := range groups {
			gid, err := tx.Asset().NameToAssetID(ctx, g)
			if err != nil {
				return err
			}
			groupIDs = append(groupIDs, gid)
		}
		added, err = tx.Group().AddToGroups(ctx, id, groupIDs)
		return err
	})
	return added, err
}

// Parents returns the ancestors of the named asset, nearest first.
func (s *AssetService) Parents(ctx context.Context, name string) ([]models.AssetElement, error) {
	id, err := s.store.Asset().NameToAssetID(ctx, name)
	if err != nil {
		return nil, err
	}

	parents := []models.AssetElement{}
	err = s.store.Topology().SuperParentChain(ctx, id, func(el models.AssetElement) error {
		parents = append(parents, el)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parents, nil
}

// AddPowerLink records that src powers dest.
func (s *AssetService) AddPowerLink(ctx context.Context, src, dest, srcOut, destIn string) error {
	return s.store.WithTx(ctx, func(tx *store.Store) error {
		srcID, err := tx.Asset().NameToAssetID(ctx, src)
		if err != nil {
			return err
		}
		destID, err := tx.Asset().NameToAssetID(ctx, dest)
		if err != nil {
			return err
		}
		return tx.Topology().InsertPowerLink(ctx, srcID, destID, srcOut, destIn)
	})
}

// PowerTopology returns the power chain of the named asset.
func (s *AssetService) PowerTopology(ctx context.Context, name string, direction models.PowerDirection) ([]models.PowerLink, error) {
	return s.store.Topology().PowerTopology(ctx, name, direction)
}
