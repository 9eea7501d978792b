package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"LoanGate/internal/domain/models"
	drepo "LoanGate/internal/domain/repository"
	"LoanGate/pkg/logger"
	"LoanGate/pkg/util"

	"github.com/gorilla/websocket"
)

// Client implements a ProposalStream backed by the proposal generator's
// WebSocket feed. Malformed frames are surfaced as errors, never patched
// into candidates.
type Client struct {
	logger         *logger.Logger
	token          string
	websocketURL   string
	portfolios     []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new generator ProposalStream.
func New(lgr *logger.Logger, token, websocketURL string, portfolios []string, reconnectDelay, pingInterval time.Duration) drepo.ProposalStream {
	return &Client{
		logger:         lgr,
		token:          token,
		websocketURL:   websocketURL,
		portfolios:     portfolios,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("%w: connect: %v", models.ErrGeneratorUnavailable, err)
	}
	c.conn = conn
	c.connected = true
	c.logger.Info("generator connected", logger.String("url", c.websocketURL))
	return nil
}

// Subscribe subscribes to configured portfolios.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("%w: not connected", models.ErrGeneratorUnavailable)
	}
	for _, p := range c.portfolios {
		msg := map[string]string{"type": "subscribe", "portfolio": p}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", p, err)
		}
		c.logger.Info("generator subscribed", logger.String("portfolio", p))
	}
	return nil
}

type wireCandidate struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	Urgency         string   `json:"urgency"`
	BorrowerID      string   `json:"borrower_id"`
	FacilityID      string   `json:"facility_id"`
	ExpectedOutcome string   `json:"expected_outcome"`
	Risks           []string `json:"risks"`
	DeclaredImpact  string   `json:"declared_impact"`
	SignalSeverity  string   `json:"signal_severity"`
	ExposureBucket  string   `json:"exposure_bucket"`
	SuccessProb     float64  `json:"success_probability"`
	Factors         []struct {
		Name        string  `json:"name"`
		Score       float64 `json:"score"`
		Weight      float64 `json:"weight"`
		Explanation string  `json:"explanation"`
	} `json:"confidence_factors"`
	Deadline    string `json:"deadline"`
	SubmittedAt string `json:"submitted_at"`
}

type wireMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Read streams candidates and errors until ctx is cancelled or the
// connection drops.
func (c *Client) Read(ctx context.Context) (<-chan *models.ActionCandidate, <-chan error) {
	candidates := make(chan *models.ActionCandidate, 256)
	errs := make(chan error, 8)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(candidates)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("%w: connection is nil", models.ErrGeneratorUnavailable)
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					c.connected = false
					errs <- fmt.Errorf("%w: read: %v", models.ErrGeneratorUnavailable, err)
					return
				}
				var m wireMessage
				if err := json.Unmarshal(b, &m); err != nil {
					errs <- fmt.Errorf("%w: %v", models.ErrGeneratorMalformed, err)
					continue
				}
				if m.Type != "candidate" {
					// heartbeat and ack frames
					continue
				}
				cand, err := decodeCandidate(m.Data)
				if err != nil {
					errs <- err
					continue
				}
				select {
				case candidates <- cand:
				default:
					errs <- fmt.Errorf("candidate %s dropped on backpressure", cand.ID)
				}
			}
		}
	}()

	return candidates, errs
}

func decodeCandidate(raw json.RawMessage) (*models.ActionCandidate, error) {
	var w wireCandidate
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: candidate frame: %v", models.ErrGeneratorMalformed, err)
	}

	cand := &models.ActionCandidate{
		ID:                 w.ID,
		Type:               models.ActionType(w.Type),
		Urgency:            models.Urgency(w.Urgency),
		BorrowerID:         w.BorrowerID,
		FacilityID:         w.FacilityID,
		ExpectedOutcome:    w.ExpectedOutcome,
		Risks:              w.Risks,
		DeclaredImpact:     models.ImpactLevel(w.DeclaredImpact),
		SignalSeverity:     w.SignalSeverity,
		ExposureBucket:     w.ExposureBucket,
		SuccessProbability: w.SuccessProb,
	}
	for _, f := range w.Factors {
		cand.SelfReported = append(cand.SelfReported, models.ConfidenceFactor{
			Name:        f.Name,
			Score:       f.Score,
			Weight:      f.Weight,
			Source:      models.SourceModel,
			Explanation: f.Explanation,
		})
	}
	if t, ok := util.ParseTime(w.Deadline); ok {
		cand.Deadline = t
	}
	cand.SubmittedAt = util.ParseTimeDefault(w.SubmittedAt, time.Now().UTC())

	if err := cand.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrGeneratorMalformed, err)
	}
	return cand, nil
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
