package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"
)

// Postgres error classes that mean the schema or server is not serving us,
// as opposed to a query that legitimately matched nothing.
const (
	pqUndefinedTable   = "42P01"
	pqInvalidCatalog   = "3D000"
	pqConnectionFailed = "08006"
)

// IsUnavailable reports whether err indicates the backing store cannot be
// queried at all (missing table, dropped database, dead connection). The
// services translate this into degraded-mode behavior instead of a plain
// internal error.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUndefinedTable, pqInvalidCatalog, pqConnectionFailed:
			return true
		}
	}
	return false
}

// inArgs expands ids into positional placeholders starting at offset+1 and
// returns the placeholder list alongside the argument slice. Callers must
// short-circuit empty id lists before reaching here; an empty IN clause is
// never sent to the backend.
func inArgs(ids []string, offset int) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", offset+i+1)
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}
