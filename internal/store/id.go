package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	idPrefix     = "id_"
	suffixLength = 9
)

// randomSuffix returns 9 lowercase hex characters taken from a random UUID.
func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLength]
}

// newID builds "id_<unix ms>_<suffix>", drawing a new suffix until the id is
// not already taken in items.
func (c *Collection[T, P]) newID(now time.Time, items []T) string {
	taken := make(map[string]struct{}, len(items))
	for i := range items {
		taken[P(&items[i]).Meta().ID] = struct{}{}
	}
	stamp := idPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "_"
	for {
		id := stamp + c.store.suffix()
		if _, dup := taken[id]; !dup {
			return id
		}
	}
}
