package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Store provides access to all storage repositories.
type Store struct {
	db       *sql.DB
	asset    *AssetStore
	extAttr  *ExtAttributeStore
	group    *GroupStore
	topology *TopologyStore
}

func NewStore(db *sql.DB) *Store {
	s := newStore(NewQueryInterceptor(db))
	s.db = db
	return s
}

func newStore(qi QueryInterceptor) *Store {
	assets := NewAssetStore(qi)
	return &Store{
		asset:    assets,
		extAttr:  NewExtAttributeStore(qi, assets),
		group:    NewGroupStore(qi, assets),
		topology: NewTopologyStore(qi, assets),
	}
}

func (s *Store) Asset() *AssetStore {
	return s.asset
}

func (s *Store) ExtAttributes() *ExtAttributeStore {
	return s.extAttr
}

func (s *Store) Group() *GroupStore {
	return s.group
}

func (s *Store) Topology() *TopologyStore {
	return s.topology
}

// WithTx runs fn against a Store bound to a single transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.db == nil {
		return fmt.Errorf("nested transactions are not supported")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin", "transaction", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.S().Named("store").Warnw("failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(newStore(NewQueryInterceptor(tx))); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify("commit", "transaction", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
