package analysis

import (
	"context"
	"os"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"gopkg.in/cheggaaa/pb.v1"
)

// ForEach calls fn for every index in [0, n) across a fixed pool of
// workers. Items are partitioned into contiguous chunks, one per worker,
// so fn must only write to state owned by index i. The first error cancels
// the remaining work. workers <= 0 uses every CPU.
func ForEach(ctx context.Context, job *Job, n, workers int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	bar := job.startBar(n)
	defer finishBar(bar)

	var done atomic.Int64
	g, ctx := errgroup.WithContext(ctx)

	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		lo, hi := start, start+chunk
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := fn(ctx, i); err != nil {
					return err
				}
				if bar != nil {
					bar.Increment()
				}
				job.Progress(int(done.Add(1)), n, 0)
			}
			return nil
		})
	}

	return g.Wait()
}

// Each is the sequential counterpart of ForEach with the same progress reporting
func Each(ctx context.Context, job *Job, n int, fn func(i int) error) error {
	bar := job.startBar(n)
	defer finishBar(bar)

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(i); err != nil {
			return err
		}
		if bar != nil {
			bar.Increment()
		}
		job.Progress(i+1, n, 0)
	}
	return nil
}

func (j *Job) startBar(n int) *pb.ProgressBar {
	if j == nil || !j.ShowProgress || n == 0 {
		return nil
	}
	bar := pb.New(n)
	bar.Output = os.Stderr
	bar.Prefix(j.Stage + " ")
	bar.ShowTimeLeft = false
	return bar.Start()
}

func finishBar(bar *pb.ProgressBar) {
	if bar != nil {
		bar.Finish()
	}
}
