package engine

import (
	"context"
	"sync"
	"time"
)

// ResolveAll resolves every contact against the same reference date using up
// to workers goroutines. Results keep the input order. Resolution shares no
// state between contacts, so the only coordination is handing out indices.
func ResolveAll(ctx context.Context, r *Resolver, contacts []Contact, today time.Time, workers int) ([]ContactEntry, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(contacts) {
		workers = len(contacts)
	}

	entries := make([]ContactEntry, len(contacts))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				c := contacts[i]
				entries[i] = ContactEntry{
					UID:      c.UID,
					Name:     c.Name,
					Decision: r.Resolve(c.Profile, today),
				}
			}
		}()
	}

feed:
	for i := range contacts {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
