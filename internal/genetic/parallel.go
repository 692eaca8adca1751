package genetic

import "sync"

// parallelFor calls fn for every index in [0, n) using up to workers
// goroutines over contiguous chunks. A panic in fn is re-raised on the
// calling goroutine once every worker has stopped.
func parallelFor(n, workers int, fn func(i int)) {
	if workers <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	if workers > n {
		workers = n
	}

	chunkSize := (n + workers - 1) / workers

	var (
		wg        sync.WaitGroup
		once      sync.Once
		recovered any
	)
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					once.Do(func() { recovered = r })
				}
			}()
			for i := s; i < e; i++ {
				fn(i)
			}
		}(start, end)
	}

	wg.Wait()
	if recovered != nil {
		panic(recovered)
	}
}
