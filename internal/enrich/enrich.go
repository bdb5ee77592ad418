// Package enrich joins records with the records their foreign keys point to.
//
// The API has no nested responses, so every relation of every record costs
// one GET. A record whose lookups fail is kept in its plain form; only a
// failure of the primary fetch fails a load.
package enrich

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/clinicdesk/clinicdesk-go/internal/resource"
)

// Fetcher reads records from the API.
type Fetcher interface {
	List(ctx context.Context, collection string) ([]resource.Record, error)
	Get(ctx context.Context, collection string, id int64) (resource.Record, error)
}

// Pipeline runs enrichment for one API client.
type Pipeline struct {
	fetcher Fetcher
	logger  zerolog.Logger

	// Concurrency caps how many records are enriched at once. Zero or less
	// means no cap. Lookups within one record always run together.
	Concurrency int
}

func New(fetcher Fetcher, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "enrich").Logger(),
	}
}

// Load fetches the kind's collection and enriches it.
func (p *Pipeline) Load(ctx context.Context, kind resource.Kind, onRecord func(int, resource.Record)) ([]resource.Record, error) {
	records, err := p.fetcher.List(ctx, kind.Name)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", kind.Name, err)
	}
	return p.Enrich(ctx, kind, records, onRecord), nil
}

// LoadOne fetches a single record and enriches it.
func (p *Pipeline) LoadOne(ctx context.Context, kind resource.Kind, id int64) (resource.Record, error) {
	rec, err := p.fetcher.Get(ctx, kind.Name, id)
	if err != nil {
		return nil, fmt.Errorf("loading %s %d: %w", kind.Name, id, err)
	}
	return p.settle(ctx, kind, rec), nil
}

// Enrich returns records with their relations attached, in input order.
// Input records are not modified. onRecord, when non-nil, is called once
// per record as soon as it settles, with its input index; calls may come
// from several goroutines at once.
func (p *Pipeline) Enrich(ctx context.Context, kind resource.Kind, records []resource.Record, onRecord func(int, resource.Record)) []resource.Record {
	out := make([]resource.Record, len(records))
	if len(kind.Relations) == 0 {
		copy(out, records)
		if onRecord != nil {
			for i, rec := range out {
				onRecord(i, rec)
			}
		}
		return out
	}

	var g errgroup.Group
	if p.Concurrency > 0 {
		g.SetLimit(p.Concurrency)
	}
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			out[i] = p.settle(ctx, kind, rec)
			if onRecord != nil {
				onRecord(i, out[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// settle enriches rec, falling back to rec itself when any lookup fails.
func (p *Pipeline) settle(ctx context.Context, kind resource.Kind, rec resource.Record) resource.Record {
	enriched, err := p.enrichOne(ctx, kind, rec)
	if err != nil {
		id, _ := rec.ID()
		p.logger.Warn().Err(err).
			Str("resource", kind.Name).
			Int64("id", id).
			Msg("showing record without related data")
		return rec
	}
	return enriched
}

func (p *Pipeline) enrichOne(ctx context.Context, kind resource.Kind, rec resource.Record) (resource.Record, error) {
	related := make([]resource.Record, len(kind.Relations))

	g, gctx := errgroup.WithContext(ctx)
	for i, rel := range kind.Relations {
		id, ok := rec.Int(rel.Field)
		if !ok {
			continue
		}
		i, rel := i, rel
		g.Go(func() error {
			r, err := p.fetcher.Get(gctx, rel.Resource, id)
			if err != nil {
				return fmt.Errorf("%s %d: %w", rel.As, id, err)
			}
			related[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := rec.Clone()
	for i, rel := range kind.Relations {
		if related[i] != nil {
			out[rel.As] = related[i]
		}
	}
	return out, nil
}
