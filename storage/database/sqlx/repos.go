// Package sqlxrepos provides the postgres-backed repositories.
package sqlxrepos

import (
	"strings"

	"github.com/mkundi/kampasi/core"
)

// orderClause renders an ORDER BY clause from the orderings whose field
// appears in allowed, falling back to def when none survive. allowed maps
// an exposed field name to its column expression; unknown fields are
// dropped so client input never reaches the query text.
func orderClause(def string, allowed map[string]string, orderings []core.DBOrdering) string {
	terms := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		col, ok := allowed[ord.Field]
		if !ok {
			continue
		}
		direction := "DESC"
		if ord.Ascending {
			direction = "ASC"
		}
		terms = append(terms, col+" "+direction)
	}
	if len(terms) == 0 {
		return " ORDER BY " + def
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}
