package main

import (
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/noamteyssier/DeMultiSeq/config"
	"github.com/noamteyssier/DeMultiSeq/demux"
	"github.com/noamteyssier/DeMultiSeq/fastq"
	"github.com/noamteyssier/DeMultiSeq/report"
	"github.com/noamteyssier/DeMultiSeq/whitelist"
)

const progressEvery = 10000

const progressTemplate pb.ProgressBarTemplate = `{{counters . }} read pairs {{speed . "%s pairs/s" }} {{etime . }}`

func run(cfg *config.Config, opts options) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if opts.cpuprofile != "" {
		f, err := os.Create(opts.cpuprofile)
		if err != nil {
			return errors.Wrap(err, "could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return errors.Wrap(err, "could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	strategy, err := whitelist.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}
	wlOpts := whitelist.Options{Strategy: strategy, Tolerance: cfg.Tolerance}

	cells, err := loadWhitelist("cell barcodes", cfg.CellBarcodes, wlOpts)
	if err != nil {
		return err
	}
	tags, err := loadWhitelist("multiseq barcodes", cfg.MultiseqBarcodes, wlOpts)
	if err != nil {
		return err
	}

	engine, err := demux.NewEngine(cells, tags, demux.Options{
		Tolerance: cfg.Tolerance,
		Layout:    cfg.Layout(),
	})
	if err != nil {
		return err
	}

	pairs, err := fastq.Open(cfg.Read1, cfg.Read2)
	if err != nil {
		return err
	}
	defer pairs.Close()

	runner := &demux.Runner{
		Engine:        engine,
		Threads:       cfg.Threads,
		ProgressEvery: progressEvery,
	}
	var bar *pb.ProgressBar
	if opts.progress {
		bar = progressTemplate.Start64(0)
		runner.OnProgress = func(n int64) { bar.SetCurrent(n) }
	} else {
		runner.OnProgress = func(n int64) {
			log.WithField("pairs", n).Info("Read pairs processed")
		}
	}

	log.WithFields(log.Fields{
		"read_1":    cfg.Read1,
		"read_2":    cfg.Read2,
		"tolerance": cfg.Tolerance,
		"threads":   cfg.Threads,
	}).Info("Starting demux")
	start := time.Now()
	store, stats, err := runner.Run(pairs)
	if bar != nil {
		bar.SetCurrent(pairs.Pairs())
		bar.Finish()
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := report.WriteFile(cfg.Output, store); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"pairs":          stats.Pairs,
		"recorded":       stats.Recorded,
		"malformed":      stats.Malformed,
		"cell_mismatch":  stats.NoCellMatch,
		"tag_mismatch":   stats.NoTagMatch,
		"both_mismatch":  stats.NoMatch,
		"cell_corrected": stats.CellCorrected,
		"tag_corrected":  stats.TagCorrected,
		"rows":           store.Len(),
		"elapsed":        elapsed.Round(time.Millisecond),
	}).Info("done")

	if cfg.Summary != "" {
		err := report.WriteSummary(cfg.Summary, report.Summary{
			Stats:     stats,
			Rows:      store.Len(),
			Tolerance: cfg.Tolerance,
			CellIndex: string(cells.Strategy()),
			TagIndex:  string(tags.Strategy()),
		})
		if err != nil {
			return err
		}
	}

	if opts.memprofile != "" {
		f, err := os.Create(opts.memprofile)
		if err != nil {
			return errors.Wrap(err, "could not create memory profile")
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			return errors.Wrap(err, "could not write memory profile")
		}
	}
	return nil
}

func loadWhitelist(what, path string, opts whitelist.Options) (*whitelist.Index, error) {
	start := time.Now()
	idx, err := whitelist.LoadFile(path, opts)
	if err != nil {
		return nil, errors.Wrap(err, what)
	}
	log.WithFields(log.Fields{
		"file":     path,
		"barcodes": idx.Len(),
		"width":    idx.Width(),
		"strategy": idx.Strategy(),
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}).Infof("Loaded %s", what)
	return idx, nil
}
