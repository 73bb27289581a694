package device

import (
	"context"
	"sync"
)

// RunFleet executes fn against every host with at most parallel concurrent
// connections and returns the per-host results in input order, so fleet
// output stays stable regardless of which device answers first.
func RunFleet(ctx context.Context, hosts []string, parallel int, fn func(ctx context.Context, host string) string) []string {
	if parallel < 1 {
		parallel = 1
	}

	results := make([]string, len(hosts))
	sem := make(chan struct{}, parallel)

	var wg sync.WaitGroup
	for i, host := range hosts {
		wg.Add(1)
		go func(i int, host string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = fn(ctx, host)
		}(i, host)
	}

	wg.Wait()

	return results
}
