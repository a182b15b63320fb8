package venue

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/alex77palex/arbitrage-bot/pkg/types"
)

// WSClient is a venue client fed by a websocket odds stream and a
// plain HTTP bet placement endpoint.
type WSClient struct {
	name      string
	streamURL string
	placeURL  string

	dialTimeout time.Duration
	reconnect   *reconnectManager
	httpClient  *http.Client
	logger      *zap.Logger
}

// WSConfig holds websocket venue client configuration.
type WSConfig struct {
	Name                  string
	StreamURL             string
	PlaceURL              string
	DialTimeout           time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	Logger                *zap.Logger
}

// quoteFrame is the wire format of one odds update.
type quoteFrame struct {
	MarketID  string `json:"market_id"`
	Outcome   string `json:"outcome"`
	Odds      string `json:"odds"`
	MaxStake  string `json:"max_stake,omitempty"`
	Timestamp int64  `json:"ts_ms"`
}

// placeResponse is the wire format of a placement acknowledgement.
type placeResponse struct {
	BetID         string `json:"bet_id"`
	RealizedStake string `json:"realized_stake"`
	Odds          string `json:"odds"`
	ErrorCode     string `json:"error_code,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// NewWSClient creates a websocket-backed venue client.
func NewWSClient(cfg WSConfig) *WSClient {
	reconnectCfg := ReconnectConfig{
		InitialDelay:      cfg.ReconnectInitialDelay,
		MaxDelay:          cfg.ReconnectMaxDelay,
		BackoffMultiplier: cfg.ReconnectBackoffMult,
		JitterPercent:     0.2,
	}

	return &WSClient{
		name:        cfg.Name,
		streamURL:   cfg.StreamURL,
		placeURL:    cfg.PlaceURL,
		dialTimeout: cfg.DialTimeout,
		reconnect:   newReconnectManager(reconnectCfg, cfg.Logger),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      cfg.Logger.With(zap.String("venue", cfg.Name)),
	}
}

// Name returns the venue name.
func (c *WSClient) Name() string { return c.name }

// StreamOdds connects to the venue's odds stream and emits quotes for
// the subscribed markets until the context ends. Disconnects are
// handled internally with backoff; the stream only closes on context
// cancellation.
func (c *WSClient) StreamOdds(ctx context.Context, marketIDs []string) (<-chan types.OddsQuote, error) {
	conn, err := c.dial(ctx, marketIDs)
	if err != nil {
		return nil, fmt.Errorf("initial connection: %w", err)
	}

	out := make(chan types.OddsQuote, 1000)

	go func() {
		defer close(out)
		defer conn.Close()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			_, payload, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					return
				}

				c.logger.Warn("stream-read-error", zap.Error(err))
				_ = conn.Close()

				err = c.reconnect.Reconnect(ctx, func(ctx context.Context) error {
					newConn, dialErr := c.dial(ctx, marketIDs)
					if dialErr != nil {
						return dialErr
					}
					conn = newConn
					return nil
				})
				if err != nil {
					return
				}
				continue
			}

			quote, err := c.decodeFrame(payload)
			if err != nil {
				FrameDecodeErrorsTotal.WithLabelValues(c.name).Inc()
				c.logger.Debug("bad-quote-frame", zap.Error(err))
				continue
			}

			QuotesReceivedTotal.WithLabelValues(c.name).Inc()

			select {
			case out <- quote:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (c *WSClient) dial(ctx context.Context, marketIDs []string) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.streamURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.streamURL, err)
	}

	sub := struct {
		Type    string   `json:"type"`
		Markets []string `json:"markets"`
	}{Type: "subscribe", Markets: marketIDs}

	err = conn.WriteJSON(sub)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	c.logger.Info("venue-stream-connected", zap.Int("markets", len(marketIDs)))
	return conn, nil
}

func (c *WSClient) decodeFrame(payload []byte) (types.OddsQuote, error) {
	var frame quoteFrame
	err := json.Unmarshal(payload, &frame)
	if err != nil {
		return types.OddsQuote{}, fmt.Errorf("unmarshal frame: %w", err)
	}

	odds, err := decimal.NewFromString(frame.Odds)
	if err != nil {
		return types.OddsQuote{}, fmt.Errorf("parse odds %q: %w", frame.Odds, err)
	}

	maxStake := decimal.Zero
	if frame.MaxStake != "" {
		maxStake, err = decimal.NewFromString(frame.MaxStake)
		if err != nil {
			return types.OddsQuote{}, fmt.Errorf("parse max stake %q: %w", frame.MaxStake, err)
		}
	}

	return types.OddsQuote{
		Venue:     c.name,
		MarketID:  frame.MarketID,
		Outcome:   frame.Outcome,
		Odds:      odds,
		MaxStake:  maxStake,
		Timestamp: time.UnixMilli(frame.Timestamp),
	}, nil
}

// PlaceBet submits one leg to the venue's placement endpoint. Failures
// come back as *types.LegError with a classified code.
func (c *WSClient) PlaceBet(ctx context.Context, req PlaceBetRequest) (PlaceBetResult, error) {
	body, err := json.Marshal(struct {
		MarketID     string `json:"market_id"`
		Outcome      string `json:"outcome"`
		Stake        string `json:"stake"`
		ExpectedOdds string `json:"expected_odds"`
	}{req.MarketID, req.Outcome, req.Stake.String(), req.ExpectedOdds.String()})
	if err != nil {
		return PlaceBetResult{}, fmt.Errorf("marshal placement: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.placeURL, bytes.NewReader(body))
	if err != nil {
		return PlaceBetResult{}, fmt.Errorf("build placement request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return PlaceBetResult{}, &types.LegError{
			Venue:   c.name,
			Outcome: req.Outcome,
			Code:    types.ErrNetworkError,
			Message: err.Error(),
		}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return PlaceBetResult{}, &types.LegError{
			Venue:   c.name,
			Outcome: req.Outcome,
			Code:    types.ErrNetworkError,
			Message: err.Error(),
		}
	}

	var ack placeResponse
	err = json.Unmarshal(payload, &ack)
	if err != nil {
		return PlaceBetResult{}, &types.LegError{
			Venue:   c.name,
			Outcome: req.Outcome,
			Code:    types.ErrRejectedOther,
			Message: fmt.Sprintf("unparseable response (status %d)", resp.StatusCode),
		}
	}

	if resp.StatusCode != http.StatusOK || ack.ErrorCode != "" {
		return PlaceBetResult{}, &types.LegError{
			Venue:   c.name,
			Outcome: req.Outcome,
			Code:    classifyCode(ack.ErrorCode),
			Message: ack.ErrorMessage,
		}
	}

	realized, err := decimal.NewFromString(ack.RealizedStake)
	if err != nil {
		realized = req.Stake
	}
	odds, err := decimal.NewFromString(ack.Odds)
	if err != nil {
		odds = req.ExpectedOdds
	}

	BetsPlacedTotal.WithLabelValues(c.name).Inc()

	return PlaceBetResult{
		BetID:         ack.BetID,
		RealizedStake: realized,
		Odds:          odds,
	}, nil
}

// classifyCode maps a venue error code onto the core taxonomy.
func classifyCode(code string) string {
	switch code {
	case types.ErrRejectedPriceChanged, types.ErrRejectedLimit, types.ErrNetworkError:
		return code
	default:
		return types.ErrRejectedOther
	}
}
