// Package engine selects moves for the automated opponent. The easy tier
// picks a random legal move locally; medium and hard delegate to an external
// search/policy service and fall back to the easy tier when it misbehaves.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"

	"github.com/rocketscienceinc/sidestacker-backend/internal/apperror"
	"github.com/rocketscienceinc/sidestacker-backend/internal/config"
	"github.com/rocketscienceinc/sidestacker-backend/internal/entity"
	"github.com/rocketscienceinc/sidestacker-backend/internal/sidestacker"
)

// Strategy returns one legal move for symbol on board.
type Strategy interface {
	SelectMove(ctx context.Context, board sidestacker.Board, symbol sidestacker.Cell) (sidestacker.Position, error)
}

type randomStrategy struct{}

// NewRandom - the easy tier: uniform over the current valid moves.
func NewRandom() Strategy {
	return &randomStrategy{}
}

func (that *randomStrategy) SelectMove(_ context.Context, board sidestacker.Board, _ sidestacker.Cell) (sidestacker.Position, error) {
	moves := sidestacker.ValidMoves(board)
	if len(moves) == 0 {
		return sidestacker.Position{}, apperror.ErrNoLegalMoves
	}

	return moves[rand.Intn(len(moves))], nil //nolint: gosec // game moves, not secrets
}

// ForDifficulty - maps a difficulty to its strategy. Easy and unknown
// values run locally; medium and hard call the delegate endpoints.
func ForDifficulty(logger *slog.Logger, conf *config.Engine, difficulty string) Strategy {
	switch difficulty {
	case entity.DifficultyMedium:
		return NewDelegate(logger, conf.BaseURL+conf.MCTSPath, conf.Timeout)
	case entity.DifficultyHard:
		return NewDelegate(logger, conf.BaseURL+conf.AlphaZeroPath, conf.Timeout)
	default:
		return NewRandom()
	}
}

func statusError(code int) error {
	return fmt.Errorf("%w: status %s", apperror.ErrEngineUnavailable, http.StatusText(code))
}
