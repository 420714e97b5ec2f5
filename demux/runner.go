package demux

import (
	"io"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/noamteyssier/DeMultiSeq/aggregate"
)

// PairSource yields read 1 / read 2 sequence pairs in lock-step. Next
// returns io.EOF once either side is exhausted.
type PairSource interface {
	Next() (r1, r2 string, err error)
}

const (
	defaultChunkSize = 1000
	chunkBuffer      = 10
)

// Runner drives an Engine over a PairSource.
type Runner struct {
	Engine *Engine

	// Threads > 1 shards chunks of ChunkSize pairs across that many
	// workers, each with its own store, merged when the input ends.
	Threads   int
	ChunkSize int

	// OnProgress, if set, is called with the number of pairs read so far
	// every ProgressEvery pairs.
	ProgressEvery int64
	OnProgress    func(pairs int64)
}

type pair struct {
	r1, r2 string
}

type shard struct {
	store *aggregate.Store
	stats Stats
}

func newShard() *shard {
	return &shard{store: aggregate.NewStore()}
}

func (sh *shard) process(engine *Engine, p pair) {
	res, err := engine.Process(sh.store, p.r1, p.r2)
	if err != nil {
		log.WithError(err).Debug("skipping malformed read pair")
	}
	sh.stats.Observe(res, err)
}

// Run consumes src until it is exhausted and returns the aggregated UMI
// counts. Malformed pairs are counted and skipped; an error from src
// aborts the run.
func (r *Runner) Run(src PairSource) (*aggregate.Store, Stats, error) {
	if r.Engine == nil {
		return nil, Stats{}, errors.New("runner has no engine")
	}
	if r.Threads <= 1 {
		return r.runSerial(src)
	}
	return r.runSharded(src)
}

func (r *Runner) progress(n int64) {
	if r.OnProgress != nil && r.ProgressEvery > 0 && n%r.ProgressEvery == 0 {
		r.OnProgress(n)
	}
}

func (r *Runner) runSerial(src PairSource) (*aggregate.Store, Stats, error) {
	sh := newShard()
	var n int64
	for {
		r1, r2, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Stats{}, errors.Wrapf(err, "read pair %d", n+1)
		}
		sh.process(r.Engine, pair{r1: r1, r2: r2})
		n++
		r.progress(n)
	}
	return sh.store, sh.stats, nil
}

func (r *Runner) runSharded(src PairSource) (*aggregate.Store, Stats, error) {
	chunkSize := r.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	chunks := make(chan []pair, chunkBuffer)
	shards := make([]*shard, r.Threads)

	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = newShard()
		wg.Add(1)
		go func(sh *shard) {
			defer wg.Done()
			for chunk := range chunks {
				for _, p := range chunk {
					sh.process(r.Engine, p)
				}
			}
		}(shards[i])
	}

	var readErr error
	var n int64
	chunk := make([]pair, 0, chunkSize)
	for {
		r1, r2, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			readErr = errors.Wrapf(err, "read pair %d", n+1)
			break
		}
		chunk = append(chunk, pair{r1: r1, r2: r2})
		n++
		r.progress(n)
		if len(chunk) == chunkSize {
			chunks <- chunk
			chunk = make([]pair, 0, chunkSize)
		}
	}
	if len(chunk) > 0 {
		chunks <- chunk
	}
	close(chunks)
	wg.Wait()

	if readErr != nil {
		return nil, Stats{}, readErr
	}

	store := shards[0].store
	stats := shards[0].stats
	for _, sh := range shards[1:] {
		store.Merge(sh.store)
		stats.Add(sh.stats)
	}
	log.WithFields(log.Fields{
		"shards": len(shards),
		"pairs":  n,
	}).Debug("merged shards")
	return store, stats, nil
}
