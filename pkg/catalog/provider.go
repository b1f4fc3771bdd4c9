package catalog

import (
	"context"
	"sync"

	"github.com/goliatone/go-formflow/pkg/schema"
)

type optionKey struct {
	columnID string
	formID   string
}

// Provider resolves option sets for a form's select/radio/checkbox columns.
// Fetches for one schema load are issued concurrently and joined; a failure
// fetching one column degrades that column to an empty option set instead of
// blocking the rest. Results are cached per (columnID, formID) until the
// form is invalidated by an options-changed signal.
type Provider struct {
	svc OptionService

	mu    sync.Mutex
	cache map[optionKey][]string
}

// NewProvider wraps an OptionService with session-lifetime caching.
func NewProvider(svc OptionService) *Provider {
	return &Provider{
		svc:   svc,
		cache: make(map[optionKey][]string),
	}
}

// Options fetches the labels for a single column, consulting the cache
// first. A missing columnID or formID short-circuits to an empty set without
// a network call.
func (p *Provider) Options(ctx context.Context, column schema.ColumnDefinition, formID string) ([]string, error) {
	if column.ID == "" || formID == "" {
		return nil, nil
	}

	key := optionKey{columnID: column.ID, formID: formID}
	p.mu.Lock()
	if labels, ok := p.cache[key]; ok {
		p.mu.Unlock()
		return append([]string(nil), labels...), nil
	}
	p.mu.Unlock()

	labels, err := p.svc.Options(ctx, column.ID, formID, column.DataType)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[key] = append([]string(nil), labels...)
	p.mu.Unlock()
	return labels, nil
}

// Resolve fans out one fetch per option-bearing column and waits for all of
// them. The returned sets map column IDs to their labels; failures land in
// the second map and the corresponding set is present but empty, so a broken
// column renders as "no options available" while the rest stay usable.
func (p *Provider) Resolve(ctx context.Context, formID string, columns []schema.ColumnDefinition) (map[string]schema.OptionSet, map[string]error) {
	sets := make(map[string]schema.OptionSet)
	failures := make(map[string]error)

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, column := range columns {
		if !column.DataType.HasOptions() {
			continue
		}
		wg.Add(1)
		go func(column schema.ColumnDefinition) {
			defer wg.Done()
			labels, err := p.Options(ctx, column, formID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[column.ID] = err
				labels = nil
			}
			sets[column.ID] = schema.OptionSet{
				ColumnID: column.ID,
				FormID:   formID,
				Labels:   labels,
			}
		}(column)
	}
	wg.Wait()

	return sets, failures
}

// Invalidate drops every cached option set belonging to the form. The next
// Resolve re-fetches from the backend.
func (p *Provider) Invalidate(formID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key := range p.cache {
		if key.formID == formID {
			delete(p.cache, key)
		}
	}
}
