package store

import (
	"database/sql"
	"errors"
	"fmt"

	duckdb "github.com/duckdb/duckdb-go/v2"

	"github.com/kubev2v/asset-agent/internal/metrics"
	srvErrors "github.com/kubev2v/asset-agent/pkg/errors"
)

// classify maps a driver error onto the service error taxonomy. element names the
// row being accessed and is used for NotFound and Conflict.
func classify(op string, element any, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return srvErrors.NewElementNotFoundError(element)
	}

	metrics.StoreQueryErrorCount.WithLabelValues(op).Inc()

	var dErr *duckdb.Error
	if errors.As(err, &dErr) {
		switch dErr.Type {
		case duckdb.ErrorTypeConstraint, duckdb.ErrorTypeTransaction:
			return srvErrors.NewConflictError(fmt.Sprint(element), err)
		}
	}
	return srvErrors.NewInternalError(op, err)
}

// internal wraps a non-driver failure, e.g. a query that did not build.
func internal(op string, err error) error {
	metrics.StoreQueryErrorCount.WithLabelValues(op).Inc()
	return srvErrors.NewInternalError(op, err)
}
