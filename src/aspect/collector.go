package aspect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/thought-machine/blazesync/src/core"
	"github.com/thought-machine/blazesync/src/fs"
)

// A Collector gathers the aspect output files left by a build and decodes them.
type Collector struct {
	strategy    Strategy
	parallelism int
	maxFileSize int64
}

// A Result is everything one collection found.
// Files that failed to decode are reported in Errors and otherwise ignored.
type Result struct {
	Targets []*core.TargetIdeInfo
	Errors  []*DecodeError
	Files   int
	Bytes   int64
}

// NewCollector returns a new Collector reading files in the given strategy's format.
// Files bigger than maxFileSize are rejected; zero means no limit.
func NewCollector(strategy Strategy, parallelism int, maxFileSize int64) *Collector {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &Collector{strategy: strategy, parallelism: parallelism, maxFileSize: maxFileSize}
}

// Collect finds every aspect output file beneath dir and decodes them concurrently.
// Individual files that fail to decode don't fail the collection; cancelling the context does.
func (c *Collector) Collect(ctx context.Context, dir string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, err := fs.FindFiles(dir, c.strategy.OutputFileExtension())
	if err != nil {
		return nil, fmt.Errorf("failed to find aspect output in %s: %w", dir, err)
	}
	log.Debug("Found %d aspect output files in %s", len(files), dir)
	targets := make([]*core.TargetIdeInfo, len(files))
	var bytes int64
	decodeErrors := make([]*DecodeError, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			target, size, err := c.readFile(file)
			atomic.AddInt64(&bytes, size)
			if err != nil {
				log.Warning("%s", err)
				decodeErrors[i] = err
				return nil
			}
			targets[i] = target
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Both are kept in file order, which is the sorted order they were discovered in.
	result := &Result{Files: len(files), Bytes: bytes}
	for i, target := range targets {
		if target != nil {
			result.Targets = append(result.Targets, target)
		} else if decodeErrors[i] != nil {
			result.Errors = append(result.Errors, decodeErrors[i])
		}
	}
	log.Info("Read %d targets from %d aspect files (%s), %d failed to decode", len(result.Targets), len(files), humanize.Bytes(uint64(bytes)), len(result.Errors))
	return result, nil
}

func (c *Collector) readFile(filename string) (*core.TargetIdeInfo, int64, *DecodeError) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, 0, &DecodeError{Path: filename, Err: err}
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, 0, &DecodeError{Path: filename, Err: err}
	}
	if c.maxFileSize > 0 && info.Size() > c.maxFileSize {
		return nil, info.Size(), &DecodeError{Path: filename, Err: fmt.Errorf("file is %s, larger than the limit of %s", humanize.Bytes(uint64(info.Size())), humanize.Bytes(uint64(c.maxFileSize)))}
	}
	target, err := c.strategy.ReadTargetInfo(f)
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			return nil, info.Size(), &DecodeError{Path: filename, Err: decodeErr.Err}
		}
		return nil, info.Size(), &DecodeError{Path: filename, Err: err}
	}
	return target, info.Size(), nil
}
