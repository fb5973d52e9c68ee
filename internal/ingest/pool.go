package ingest

import (
	"context"
	"runtime"
	"sync"

	"retentionos/pkg/cdm"
)

// MapAll maps every loaded table through a bounded worker pool. Each worker
// owns whole entity types, so per-entity row order is preserved. workers
// values below one default to GOMAXPROCS.
func (m *Mapper) MapAll(ctx context.Context, tables map[cdm.EntityType]*Table, workers int) (map[cdm.EntityType][]cdm.Record, error) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	queue := make(chan cdm.EntityType, len(tables))
	for entity := range tables {
		queue <- entity
	}
	close(queue)

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		results  = make(map[cdm.EntityType][]cdm.Record, len(tables))
		firstErr error
	)
	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entity := range queue {
				if err := ctx.Err(); err != nil {
					setErr(err)
					return
				}
				records, err := m.MapTable(entity, tables[entity])
				if err != nil {
					setErr(err)
					return
				}
				mu.Lock()
				results[entity] = records
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
