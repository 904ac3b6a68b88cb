package enrich

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okanehara/vocabdex/pkg/vocab"
)

// lookupPool fans dictionary lookups out over a fixed set of goroutines.
// Each worker owns whole row indexes, so rows are filled without locking.
type lookupPool struct {
	dict    Lookup
	rows    []vocab.Row
	idx     chan int
	wg      sync.WaitGroup
	matched atomic.Int64
}

func newLookupPool(dict Lookup, rows []vocab.Row, workers int) *lookupPool {
	p := &lookupPool{
		dict: dict,
		rows: rows,
		idx:  make(chan int, workers),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *lookupPool) worker() {
	defer p.wg.Done()
	for i := range p.idx {
		row := &p.rows[i]
		found, ok := p.dict.Lookup(row.Term, row.Reading)
		if !ok {
			continue
		}
		if row.Reading == "" {
			row.Reading = found.Reading
		}
		if row.Meaning == "" {
			row.Meaning = found.Meaning
		}
		p.matched.Add(1)
	}
}

// run feeds the pending indexes to the workers and waits for them to
// drain. Cancellation stops the feed; lookups already picked up complete.
func (p *lookupPool) run(ctx context.Context, pending []int) int64 {
feed:
	for _, i := range pending {
		select {
		case <-ctx.Done():
			break feed
		case p.idx <- i:
		}
	}
	close(p.idx)
	p.wg.Wait()
	return p.matched.Load()
}
