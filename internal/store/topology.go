package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/kubev2v/asset-agent/internal/models"
	srvErrors "github.com/kubev2v/asset-agent/pkg/errors"
)

const tablePowerLink = "asset_power_link"

// TopologyStore answers parent-chain and power-chain queries.
type TopologyStore struct {
	db     QueryInterceptor
	assets *AssetStore
}

func NewTopologyStore(db QueryInterceptor, assets *AssetStore) *TopologyStore {
	return &TopologyStore{db: db, assets: assets}
}

// SuperParentChain calls visit for every ancestor of assetID, nearest first.
// The walk stops at the first asset without a parent or when visit returns an error.
// A chain longer than the number of assets is reported as a CycleDetectedError.
func (s *TopologyStore) SuperParentChain(ctx context.Context, assetID int64, visit func(models.AssetElement) error) error {
	current, err := s.assets.SelectByID(ctx, assetID)
	if err != nil {
		return err
	}

	total, err := s.assets.Count(ctx)
	if err != nil {
		return err
	}

	for steps := 0; current.ParentID != 0; steps++ {
		if steps >= total {
			return srvErrors.NewCycleDetectedError(assetID, steps)
		}
		parent, err := s.assets.SelectByID(ctx, current.ParentID)
		if err != nil {
			return err
		}
		if err := visit(*parent); err != nil {
			return err
		}
		current = parent
	}
	return nil
}

// InsertPowerLink records that srcID feeds destID. Re-inserting an existing link is a no-op.
func (s *TopologyStore) InsertPowerLink(ctx context.Context, srcID, destID int64, srcOut, destIn string) error {
	if srcID == destID {
		return srvErrors.NewInvalidFormatError("asset %d cannot power itself", srcID)
	}
	for _, id := range []int64{srcID, destID} {
		if _, err := s.assets.SelectByID(ctx, id); err != nil {
			return err
		}
	}

	query, args, err := sq.Insert(tablePowerLink).
		Columns("src_id", "dest_id", "src_out", "dest_in").
		Values(srcID, destID, srcOut, destIn).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return internal("insert power link", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return classify("insert power link", destID, err)
	}
	return nil
}

// DeletePowerLinks removes every link where id is source or destination.
func (s *TopologyStore) DeletePowerLinks(ctx context.Context, id int64) (int64, error) {
	query, args, err := sq.Delete(tablePowerLink).
		Where(sq.Or{sq.Eq{"src_id": id}, sq.Eq{"dest_id": id}}).
		ToSql()
	if err != nil {
		return 0, internal("delete power links", err)
	}
	return s.assets.exec(ctx, "delete power links", id, query, args...)
}

// PowerTopology returns the power links reachable from target in the given
// direction, breadth first. An asset without links yields an empty chain.
func (s *TopologyStore) PowerTopology(ctx context.Context, target string, direction models.PowerDirection) ([]models.PowerLink, error) {
	targetID, err := s.assets.NameToAssetID(ctx, target)
	if err != nil {
		return nil, err
	}

	downstream := direction == models.PowerDownstream
	match := "l.dest_id"
	if downstream {
		match = "l.src_id"
	}

	chain := []models.PowerLink{}
	visited := map[int64]bool{targetID: true}
	frontier := []int64{targetID}
	for len(frontier) > 0 {
		links, err := s.linksOf(ctx, match, frontier)
		if err != nil {
			return nil, err
		}

		var following []int64
		for _, l := range links {
			chain = append(chain, l)
			id := l.SrcID
			if downstream {
				id = l.DestID
			}
			if !visited[id] {
				visited[id] = true
				following = append(following, id)
			}
		}
		frontier = following
	}
	return chain, nil
}

func (s *TopologyStore) linksOf(ctx context.Context, column string, ids []int64) ([]models.PowerLink, error) {
	query, args, err := sq.Select("l.src_id", "src.name", "l.src_out", "l.dest_id", "dst.name", "l.dest_in").
		From(tablePowerLink + " l").
		Join(tableAssetElement + " src ON src.id = l.src_id").
		Join(tableAssetElement + " dst ON dst.id = l.dest_id").
		Where(sq.Eq{column: ids}).
		OrderBy("l.dest_id", "l.src_id", "l.dest_in").
		ToSql()
	if err != nil {
		return nil, internal("power topology", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("power topology", ids, err)
	}
	defer rows.Close()

	var links []models.PowerLink
	for rows.Next() {
		var l models.PowerLink
		if err := rows.Scan(&l.SrcID, &l.SrcName, &l.SrcOut, &l.DestID, &l.DestName, &l.DestIn); err != nil {
			return nil, classify("power topology", ids, err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("power topology", ids, err)
	}
	return links, nil
}
