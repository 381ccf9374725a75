package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/kubev2v/asset-agent/internal/models"
	srvErrors "github.com/kubev2v/asset-agent/pkg/errors"
)

const tableGroupLink = "asset_group_link"

type GroupStore struct {
	db     QueryInterceptor
	assets *AssetStore
}

func NewGroupStore(db QueryInterceptor, assets *AssetStore) *GroupStore {
	return &GroupStore{db: db, assets: assets}
}

// AddToGroups links assetID to every group and returns the number of new links.
// Existing links are kept and not counted.
func (s *GroupStore) AddToGroups(ctx context.Context, assetID int64, groupIDs []int64) (int, error) {
	if _, err := s.assets.SelectByID(ctx, assetID); err != nil {
		return 0, err
	}

	added := 0
	for _, groupID := range groupIDs {
		group, err := s.assets.SelectByID(ctx, groupID)
		if err != nil {
			return added, err
		}
		if group.TypeID != models.AssetTypeGroup.ID() {
			return added, srvErrors.NewInvalidFormatError("asset %q is not a group", group.Name)
		}

		var linked int
		err = s.assets.selectOne(ctx, "add to group", groupID,
			sq.Select("COUNT(*)").From(tableGroupLink).Where(sq.Eq{"group_id": groupID, "asset_id": assetID}),
			&linked)
		if err != nil {
			return added, err
		}
		if linked > 0 {
			continue
		}

		query, args, err := sq.Insert(tableGroupLink).
			Columns("group_id", "asset_id").
			Values(groupID, assetID).
			Suffix("ON CONFLICT DO NOTHING").
			ToSql()
		if err != nil {
			return added, internal("add to group", err)
		}
		n, err := s.assets.exec(ctx, "add to group", groupID, query, args...)
		if err != nil {
			return added, err
		}
		added += int(n)
	}
	return added, nil
}

// DeleteLinks removes every membership of id, both as member and as group.
func (s *GroupStore) DeleteLinks(ctx context.Context, id int64) (int64, error) {
	query, args, err := sq.Delete(tableGroupLink).
		Where(sq.Or{sq.Eq{"asset_id": id}, sq.Eq{"group_id": id}}).
		ToSql()
	if err != nil {
		return 0, internal("delete group links", err)
	}
	return s.assets.exec(ctx, "delete group links", id, query, args...)
}

// GroupsOf returns group id to group internal name for the direct groups of assetID.
func (s *GroupStore) GroupsOf(ctx context.Context, assetID int64) (map[int64]string, error) {
	query, args, err := sq.Select("g.id", "g.name").
		From(tableGroupLink + " l").
		Join(tableAssetElement + " g ON g.id = l.group_id").
		Where(sq.Eq{"l.asset_id": assetID}).
		ToSql()
	if err != nil {
		return nil, internal("groups of", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("groups of", assetID, err)
	}
	defer rows.Close()

	groups := map[int64]string{}
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, classify("groups of", assetID, err)
		}
		groups[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, classify("groups of", assetID, err)
	}
	return groups, nil
}
