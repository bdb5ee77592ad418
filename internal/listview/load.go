package listview

import (
	"context"
	"fmt"

	"github.com/clinicdesk/clinicdesk-go/internal/resource"
)

// Source fetches a primary collection.
type Source interface {
	List(ctx context.Context, collection string) ([]resource.Record, error)
}

// Enricher attaches related records, reporting each record as it settles.
type Enricher interface {
	Enrich(ctx context.Context, kind resource.Kind, records []resource.Record, onRecord func(int, resource.Record)) []resource.Record
}

// Load fills the list with kind's collection. Plain records are committed as
// soon as the primary fetch returns; enriched copies replace them one by one
// as their lookups settle. Only a primary fetch failure is returned.
func (l *List) Load(ctx context.Context, src Source, enricher Enricher, kind resource.Kind) error {
	records, err := src.List(ctx, kind.Name)
	if err != nil {
		return fmt.Errorf("loading %s: %w", kind.Name, err)
	}
	if !l.Commit(records) {
		return nil
	}
	enricher.Enrich(ctx, kind, records, func(_ int, rec resource.Record) {
		l.Apply(rec)
	})
	return nil
}
