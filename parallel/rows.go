package parallel

import "sync"

// minChunk keeps tiny inputs on the calling goroutine.
const minChunk = 64

// Rows splits [0,n) into contiguous chunks and calls fn for each chunk on its
// own goroutine, returning once every chunk is done. Chunks never overlap, so
// fn may write to its own index range without locking.
func Rows(n, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	workers = Workers(workers)
	if workers > n/minChunk {
		workers = max(1, n/minChunk)
	}
	if workers == 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Go(func() {
			fn(start, end)
		})
	}
	wg.Wait()
}
