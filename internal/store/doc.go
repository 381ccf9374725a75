// Package store implements the data access layer of the asset agent.
//
// Assets are persisted in DuckDB through database/sql. Queries are built with
// squirrel and every statement goes through a QueryInterceptor that logs it at
// debug level.
//
// # Architecture Overview
//
//	Store (facade)
//	├── AssetStore         → asset_element
//	├── ExtAttributeStore  → asset_ext_attribute
//	├── GroupStore         → asset_group_link
//	└── TopologyStore      → asset_element (parent_id), asset_power_link
//
// # Tables
//
//	┌──────────────────────┬──────────────────────────────────────────────┐
//	│  Table               │  Purpose                                     │
//	├──────────────────────┼──────────────────────────────────────────────┤
//	│  asset_element       │  One row per asset, name is UNIQUE           │
//	│  asset_ext_attribute │  key/value/read_only per asset               │
//	│  asset_group_link    │  group membership (group_id, asset_id)       │
//	│  asset_power_link    │  src_id powers dest_id                       │
//	│  schema_migrations   │  Migration version tracking                  │
//	└──────────────────────┴──────────────────────────────────────────────┘
//
// There are no foreign keys: DuckDB cannot delete a parent and its children in
// the same transaction when they are declared. The stores check that referenced
// rows exist, and services.AssetService groups related writes in WithTx.
// Updates never touch indexed columns (id, name), which DuckDB rewrites as a
// delete plus insert.
//
// # Errors
//
// Driver errors are classified where they happen:
//
//	sql.ErrNoRows                    → ElementNotFoundError (message "Element 'x' not found.")
//	duckdb constraint / transaction  → ConflictError
//	anything else                    → InternalError
//
// Deletes are idempotent and report the number of affected rows.
//
// # Transactions
//
//	err := s.WithTx(ctx, func(tx *store.Store) error {
//	    id, err := tx.Asset().InsertAsset(ctx, asset, true)
//	    if err != nil {
//	        return err
//	    }
//	    _, err = tx.ExtAttributes().Insert(ctx, id, asset.ExtAttributes)
//	    return err
//	})
//
// The Store passed to fn shares one *sql.Tx; nested WithTx calls are rejected.
package store
