package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/kubev2v/asset-agent/internal/models"
)

const tableExtAttribute = "asset_ext_attribute"

type ExtAttributeStore struct {
	db     QueryInterceptor
	assets *AssetStore
}

func NewExtAttributeStore(db QueryInterceptor, assets *AssetStore) *ExtAttributeStore {
	return &ExtAttributeStore{db: db, assets: assets}
}

// Get returns the stored attributes of an asset. WasUpdated is false on every entry.
func (s *ExtAttributeStore) Get(ctx context.Context, assetID int64) (models.ExtAttributes, error) {
	query, args, err := sq.Select("keytag", "value", "read_only").
		From(tableExtAttribute).
		Where(sq.Eq{"asset_id": assetID}).
		ToSql()
	if err != nil {
		return nil, internal("get ext attributes", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("get ext attributes", assetID, err)
	}
	defer rows.Close()

	ext := models.ExtAttributes{}
	for rows.Next() {
		var key string
		var attr models.ExtAttribute
		if err := rows.Scan(&key, &attr.Value, &attr.ReadOnly); err != nil {
			return nil, classify("get ext attributes", assetID, err)
		}
		ext[key] = attr
	}
	if err := rows.Err(); err != nil {
		return nil, classify("get ext attributes", assetID, err)
	}
	return ext, nil
}

// Insert merges attrs into the stored attributes of assetID and returns how many
// were written.
//
// A stored read-only attribute is kept unless its key is always writable. Incoming
// attributes that were not freshly parsed never replace a stored value. Writing a
// value identical to the stored one is a no-op and is not counted.
func (s *ExtAttributeStore) Insert(ctx context.Context, assetID int64, attrs models.ExtAttributes) (int, error) {
	if _, err := s.assets.SelectByID(ctx, assetID); err != nil {
		return 0, err
	}

	stored, err := s.Get(ctx, assetID)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, key := range attrs.Keys() {
		incoming := attrs[key]
		current, exists := stored[key]
		if !exists {
			if err := s.insertOne(ctx, assetID, key, incoming); err != nil {
				return written, err
			}
			written++
			continue
		}

		if !models.ShouldOverwrite(key, current, incoming) {
			continue
		}
		if current.Value == incoming.Value && current.ReadOnly == incoming.ReadOnly {
			continue
		}
		if err := s.updateOne(ctx, assetID, key, incoming); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func (s *ExtAttributeStore) insertOne(ctx context.Context, assetID int64, key string, attr models.ExtAttribute) error {
	query, args, err := sq.Insert(tableExtAttribute).
		Columns("asset_id", "keytag", "value", "read_only").
		Values(assetID, key, attr.Value, attr.ReadOnly).
		ToSql()
	if err != nil {
		return internal("insert ext attribute", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return classify("insert ext attribute", key, err)
	}
	return nil
}

func (s *ExtAttributeStore) updateOne(ctx context.Context, assetID int64, key string, attr models.ExtAttribute) error {
	query, args, err := sq.Update(tableExtAttribute).
		Set("value", attr.Value).
		Set("read_only", attr.ReadOnly).
		Where(sq.Eq{"asset_id": assetID, "keytag": key}).
		ToSql()
	if err != nil {
		return internal("update ext attribute", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return classify("update ext attribute", key, err)
	}
	return nil
}

// Delete removes every attribute of assetID.
func (s *ExtAttributeStore) Delete(ctx context.Context, assetID int64) (int64, error) {
	query, args, err := sq.Delete(tableExtAttribute).Where(sq.Eq{"asset_id": assetID}).ToSql()
	if err != nil {
		return 0, internal("delete ext attributes", err)
	}
	return s.assets.exec(ctx, "delete ext attributes", assetID, query, args...)
}
