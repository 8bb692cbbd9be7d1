package sim

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"memeconomy/internal/storage"
)

// stubRand replays a fixed sequence of draws.
type stubRand struct {
	values []float64
	next   int
}

func (r *stubRand) Float64() float64 {
	if r.next >= len(r.values) {
		return 0
	}
	v := r.values[r.next]
	r.next++
	return v
}

type fakeTokenStore struct {
	mu      sync.Mutex
	tokens  map[uuid.UUID]storage.Token
	updates map[uuid.UUID]decimal.Decimal
	crashed map[uuid.UUID]bool
}

func newFakeTokenStore(tokens ...storage.Token) *fakeTokenStore {
	s := &fakeTokenStore{
		tokens:  make(map[uuid.UUID]storage.Token),
		updates: make(map[uuid.UUID]decimal.Decimal),
		crashed: make(map[uuid.UUID]bool),
	}
	for _, token := range tokens {
		s.tokens[token.ID] = token
	}
	return s
}

func (s *fakeTokenStore) CreateToken(ctx context.Context, token storage.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.ID] = token
	return nil
}

func (s *fakeTokenStore) GetToken(ctx context.Context, id uuid.UUID) (storage.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[id]
	if !ok {
		return storage.Token{}, storage.ErrTokenNotFound
	}
	return token, nil
}

func (s *fakeTokenStore) GetTokenBySymbol(ctx context.Context, symbol string) (storage.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, token := range s.tokens {
		if token.Symbol == symbol {
			return token, nil
		}
	}
	return storage.Token{}, storage.ErrTokenNotFound
}

func (s *fakeTokenStore) ListTokens(ctx context.Context) ([]storage.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storage.Token, 0, len(s.tokens))
	for _, token := range s.tokens {
		out = append(out, token)
	}
	return out, nil
}

func (s *fakeTokenStore) ListActiveMemecoins(ctx context.Context) ([]storage.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storage.Token, 0)
	for _, token := range s.tokens {
		if token.IsMemecoin && !token.Crashed() && token.PricePerUnit.IsPositive() {
			out = append(out, token)
		}
	}
	return out, nil
}

func (s *fakeTokenStore) UpdateTokenPrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[id]
	if !ok {
		return storage.ErrTokenNotFound
	}
	token.PricePerUnit = price
	s.tokens[id] = token
	s.updates[id] = price
	return nil
}

func (s *fakeTokenStore) MarkCrashed(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[id]
	if !ok || token.Crashed() {
		return false, nil
	}
	now := time.Now().UTC()
	token.CrashedAt = &now
	token.PricePerUnit = decimal.Zero
	s.tokens[id] = token
	s.crashed[id] = true
	return true, nil
}

func (s *fakeTokenStore) DeleteCrashedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, token := range s.tokens {
		if token.CrashedAt != nil && token.CrashedAt.Before(cutoff) {
			delete(s.tokens, id)
			removed++
		}
	}
	return removed, nil
}

func (s *fakeTokenStore) lastUpdate(id uuid.UUID) (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	price, ok := s.updates[id]
	return price, ok
}

func (s *fakeTokenStore) wasCrashed(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crashed[id]
}

type fakeHistoryStore struct {
	mu     sync.Mutex
	points map[storage.Granularity][]storage.PriceHistoryPoint
}

func newFakeHistoryStore() *fakeHistoryStore {
	return &fakeHistoryStore{points: make(map[storage.Granularity][]storage.PriceHistoryPoint)}
}

func (s *fakeHistoryStore) AppendPricePoint(ctx context.Context, g storage.Granularity, point storage.PriceHistoryPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[g] = append(s.points[g], point)
	return nil
}

func (s *fakeHistoryStore) PruneHistory(ctx context.Context, g storage.Granularity, keep int) (int64, error) {
	return 0, nil
}

func (s *fakeHistoryStore) ListHistory(ctx context.Context, tokenID uuid.UUID, g storage.Granularity, limit int) ([]storage.PriceHistoryPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.points[g], nil
}

func (s *fakeHistoryStore) count(g storage.Granularity) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points[g])
}

type fakeAlertStore struct {
	mu     sync.Mutex
	alerts map[uuid.UUID]storage.Alert
}

func newFakeAlertStore(alerts ...storage.Alert) *fakeAlertStore {
	s := &fakeAlertStore{alerts: make(map[uuid.UUID]storage.Alert)}
	for _, alert := range alerts {
		s.alerts[alert.ID] = alert
	}
	return s
}

func (s *fakeAlertStore) CreateAlert(ctx context.Context, alert storage.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts[alert.ID] = alert
	return nil
}

func (s *fakeAlertStore) DeleteAlert(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alerts[id]; !ok {
		return false, nil
	}
	delete(s.alerts, id)
	return true, nil
}

func (s *fakeAlertStore) ListAlertsBySymbol(ctx context.Context, symbol string) ([]storage.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storage.Alert, 0)
	for _, alert := range s.alerts {
		if alert.TokenSymbol == symbol {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (s *fakeAlertStore) ListAlertsByUser(ctx context.Context, discordID string) ([]storage.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storage.Alert, 0)
	for _, alert := range s.alerts {
		if alert.DiscordID == discordID {
			out = append(out, alert)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	crashes chan storage.Token
	alerts  chan storage.Alert
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		crashes: make(chan storage.Token, 8),
		alerts:  make(chan storage.Alert, 8),
	}
}

func (n *recordingNotifier) NotifyCrash(ctx context.Context, token storage.Token) error {
	n.crashes <- token
	return nil
}

func (n *recordingNotifier) NotifyAlert(ctx context.Context, discordID string, token storage.Token, alert storage.Alert, price decimal.Decimal) error {
	n.alerts <- alert
	return nil
}
