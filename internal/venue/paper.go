package venue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alex77palex/arbitrage-bot/pkg/types"
)

// PaperVenue is an in-process venue used in paper mode and in tests.
// Quotes are pushed via Publish and every placement succeeds at the
// expected odds unless a failure is scripted for the outcome.
type PaperVenue struct {
	name   string
	logger *zap.Logger

	mu       sync.Mutex
	streams  []chan types.OddsQuote
	failures map[string]*types.LegError // outcome -> scripted failure
	delay    time.Duration              // scripted placement latency
	placed   []PlaceBetRequest
}

// NewPaperVenue creates a paper venue.
func NewPaperVenue(name string, logger *zap.Logger) *PaperVenue {
	return &PaperVenue{
		name:     name,
		logger:   logger.With(zap.String("venue", name)),
		failures: make(map[string]*types.LegError),
	}
}

// Name returns the venue name.
func (v *PaperVenue) Name() string { return v.name }

// StreamOdds returns a channel fed by Publish.
func (v *PaperVenue) StreamOdds(ctx context.Context, _ []string) (<-chan types.OddsQuote, error) {
	ch := make(chan types.OddsQuote, 100)

	v.mu.Lock()
	v.streams = append(v.streams, ch)
	v.mu.Unlock()

	go func() {
		<-ctx.Done()
		v.mu.Lock()
		defer v.mu.Unlock()
		for i, s := range v.streams {
			if s == ch {
				v.streams = append(v.streams[:i], v.streams[i+1:]...)
				close(ch)
				break
			}
		}
	}()

	return ch, nil
}

// Publish pushes a quote to all open streams, stamping the venue name.
func (v *PaperVenue) Publish(quote types.OddsQuote) {
	quote.Venue = v.name
	if quote.Timestamp.IsZero() {
		quote.Timestamp = time.Now()
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	for _, ch := range v.streams {
		select {
		case ch <- quote:
		default:
		}
	}
}

// FailNext scripts a classified failure for placements on an outcome.
func (v *PaperVenue) FailNext(outcome, code, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failures[outcome] = &types.LegError{
		Venue:   v.name,
		Outcome: outcome,
		Code:    code,
		Message: message,
	}
}

// SetPlacementDelay scripts a fixed latency for placements, used to
// exercise leg timeouts.
func (v *PaperVenue) SetPlacementDelay(d time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.delay = d
}

// Placed returns a copy of the placements this venue accepted or saw.
func (v *PaperVenue) Placed() []PlaceBetRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]PlaceBetRequest, len(v.placed))
	copy(out, v.placed)
	return out
}

// PlaceBet accepts the bet at the expected odds, honoring scripted
// failures and latency.
func (v *PaperVenue) PlaceBet(ctx context.Context, req PlaceBetRequest) (PlaceBetResult, error) {
	v.mu.Lock()
	v.placed = append(v.placed, req)
	failure := v.failures[req.Outcome]
	delay := v.delay
	v.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return PlaceBetResult{}, ctx.Err()
		}
	}

	if failure != nil {
		return PlaceBetResult{}, failure
	}

	v.logger.Debug("paper-bet-placed",
		zap.String("market-id", req.MarketID),
		zap.String("outcome", req.Outcome),
		zap.String("stake", req.Stake.String()),
		zap.String("odds", req.ExpectedOdds.String()))

	BetsPlacedTotal.WithLabelValues(v.name).Inc()

	return PlaceBetResult{
		BetID:         uuid.New().String(),
		RealizedStake: req.Stake,
		Odds:          req.ExpectedOdds,
	}, nil
}

var _ Client = (*PaperVenue)(nil)
var _ Client = (*WSClient)(nil)
