package rotauth

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// Concurrent redemptions of one refresh token race on the store's conditional
// revoke; exactly one caller may win.
func TestRefreshConcurrencySingleWinner(t *testing.T) {
	provider := newMemProvider()
	engine, _, done := newTestEngine(t, testConfig(), provider)
	defer done()

	pair := registerAndLogin(t, engine, "alice@example.com")

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)

	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := engine.Refresh(context.Background(), pair.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	success := 0
	rejected := 0
	for err := range results {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrInvalidToken):
			rejected++
		default:
			t.Fatalf("unexpected refresh error: %v", err)
		}
	}

	if success != 1 {
		t.Fatalf("expected exactly one refresh success, got %d", success)
	}
	if rejected != n-1 {
		t.Fatalf("expected %d rejections, got %d", n-1, rejected)
	}
}
