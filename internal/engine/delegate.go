package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/sidestacker-backend/internal/apperror"
	"github.com/rocketscienceinc/sidestacker-backend/internal/sidestacker"
)

// moveRequest is the delegate wire format: POST {board, player_symbol},
// expect [row, col] back.
type moveRequest struct {
	Board        sidestacker.Board `json:"board"`
	PlayerSymbol sidestacker.Cell  `json:"player_symbol"`
}

type delegateStrategy struct {
	logger   *slog.Logger
	client   *http.Client
	endpoint string
	fallback Strategy
}

// NewDelegate - calls an external engine endpoint with a bounded timeout.
// Any failure (unreachable service, bad status, malformed or illegal reply)
// is recovered by falling back to the random strategy; the error is logged,
// never surfaced to the player.
func NewDelegate(logger *slog.Logger, endpoint string, timeout time.Duration) Strategy {
	return &delegateStrategy{
		logger:   logger.With("component", "engine", "endpoint", endpoint),
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		fallback: NewRandom(),
	}
}

func (that *delegateStrategy) SelectMove(ctx context.Context, board sidestacker.Board, symbol sidestacker.Cell) (sidestacker.Position, error) {
	moves := sidestacker.ValidMoves(board)
	if len(moves) == 0 {
		return sidestacker.Position{}, apperror.ErrNoLegalMoves
	}

	pos, err := that.requestMove(ctx, board, symbol)
	if err != nil {
		that.logger.Warn("delegate engine failed, falling back to random", "error", err)
		return that.fallback.SelectMove(ctx, board, symbol)
	}

	// Fail closed: the delegate's move is trusted only after re-validation.
	if !sidestacker.IsValid(moves, pos) {
		that.logger.Warn("delegate engine returned an illegal move, falling back to random", "row", pos.Row, "col", pos.Col)
		return that.fallback.SelectMove(ctx, board, symbol)
	}

	return pos, nil
}

func (that *delegateStrategy) requestMove(ctx context.Context, board sidestacker.Board, symbol sidestacker.Cell) (sidestacker.Position, error) {
	body, err := json.Marshal(moveRequest{Board: board, PlayerSymbol: symbol})
	if err != nil {
		return sidestacker.Position{}, fmt.Errorf("failed to marshal move request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, that.endpoint, bytes.NewReader(body))
	if err != nil {
		return sidestacker.Position{}, fmt.Errorf("failed to build move request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := that.client.Do(req)
	if err != nil {
		return sidestacker.Position{}, fmt.Errorf("%w: %w", apperror.ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return sidestacker.Position{}, statusError(resp.StatusCode)
	}

	var coords [2]int
	if err = json.NewDecoder(resp.Body).Decode(&coords); err != nil {
		return sidestacker.Position{}, fmt.Errorf("%w: %w", apperror.ErrEngineUnavailable, err)
	}

	return sidestacker.Position{Row: coords[0], Col: coords[1]}, nil
}
