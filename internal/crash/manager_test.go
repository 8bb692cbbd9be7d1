package crash

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"memeconomy/internal/storage"
)

type stubTokenStore struct {
	storage.TokenStore
	transitioned bool
	purged       int64
	gotCutoff    time.Time
}

func (s *stubTokenStore) MarkCrashed(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.transitioned, nil
}

func (s *stubTokenStore) DeleteCrashedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.gotCutoff = cutoff
	return s.purged, nil
}

type chanNotifier struct {
	crashes chan storage.Token
}

func (n *chanNotifier) NotifyCrash(ctx context.Context, token storage.Token) error {
	n.crashes <- token
	return nil
}

func (n *chanNotifier) NotifyAlert(ctx context.Context, discordID string, token storage.Token, alert storage.Alert, price decimal.Decimal) error {
	return nil
}

func TestCrashTransitionNotifies(t *testing.T) {
	notifier := &chanNotifier{crashes: make(chan storage.Token, 1)}
	manager := NewManager(&stubTokenStore{transitioned: true}, notifier, 24*time.Hour, zerolog.Nop())

	token := storage.Token{ID: uuid.New(), Symbol: "RUG", PricePerUnit: decimal.RequireFromString("0.0015")}
	if err := manager.Crash(context.Background(), token); err != nil {
		t.Fatalf("Crash failed: %v", err)
	}

	select {
	case crashed := <-notifier.crashes:
		if crashed.Symbol != "RUG" {
			t.Fatalf("notified for %s, want RUG", crashed.Symbol)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a crash announcement")
	}
}

func TestCrashLostRaceIsSilent(t *testing.T) {
	notifier := &chanNotifier{crashes: make(chan storage.Token, 1)}
	manager := NewManager(&stubTokenStore{transitioned: false}, notifier, 24*time.Hour, zerolog.Nop())

	token := storage.Token{ID: uuid.New(), Symbol: "RUG"}
	if err := manager.Crash(context.Background(), token); err != nil {
		t.Fatalf("Crash failed: %v", err)
	}

	select {
	case <-notifier.crashes:
		t.Fatal("an already-crashed token must not be re-announced")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPurgeStaleUsesRetentionCutoff(t *testing.T) {
	tokens := &stubTokenStore{purged: 3}
	manager := NewManager(tokens, &chanNotifier{crashes: make(chan storage.Token, 1)}, 24*time.Hour, zerolog.Nop())

	removed, err := manager.PurgeStale(context.Background())
	if err != nil {
		t.Fatalf("PurgeStale failed: %v", err)
	}
	if removed != 3 {
		t.Fatalf("got %d removed, want 3", removed)
	}

	want := time.Now().UTC().Add(-24 * time.Hour)
	if diff := tokens.gotCutoff.Sub(want); diff < -5*time.Second || diff > 5*time.Second {
		t.Fatalf("cutoff %s not within 5s of now-24h", tokens.gotCutoff)
	}
}
