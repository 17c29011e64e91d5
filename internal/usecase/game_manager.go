package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/sidestacker-backend/internal/apperror"
	"github.com/rocketscienceinc/sidestacker-backend/internal/entity"
	"github.com/rocketscienceinc/sidestacker-backend/internal/pkg"
	"github.com/rocketscienceinc/sidestacker-backend/internal/sidestacker"
)

// BotWinnerName is recorded as the winner when the automated opponent wins.
const BotWinnerName = "Computer"

type userRepo interface {
	CreateOrUpdate(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
}

// Strategy mirrors the engine contract: one legal move for symbol on board.
type Strategy interface {
	SelectMove(ctx context.Context, board sidestacker.Board, symbol sidestacker.Cell) (sidestacker.Position, error)
}

// StrategyFactory resolves the move strategy for a difficulty tier.
type StrategyFactory func(difficulty string) Strategy

// GameManager owns every game's state machine. All mutation of a game goes
// through it, serialized per game id, so two racing moves can never both
// land in the same turn.
type GameManager struct {
	logger *slog.Logger

	userRepo    userRepo
	gameRepo    gameRepo
	strategyFor StrategyFactory

	ttl   time.Duration
	locks *keyedMutex
}

func NewGameManager(logger *slog.Logger, userRepo userRepo, gameRepo gameRepo, strategyFor StrategyFactory, ttl time.Duration) *GameManager {
	return &GameManager{
		logger:      logger,
		userRepo:    userRepo,
		gameRepo:    gameRepo,
		strategyFor: strategyFor,
		ttl:         ttl,
		locks:       newKeyedMutex(),
	}
}

// GetOrCreateUser - returns the user for id, or a fresh identity with a
// generated display name when id is empty or unknown.
func (that *GameManager) GetOrCreateUser(ctx context.Context, id string) (*entity.User, error) {
	if id != "" {
		user, err := that.userRepo.GetByID(ctx, id)
		if err == nil {
			return user, nil
		}
	}

	user := &entity.User{
		ID:      pkg.GenerateUserID(),
		Name:    pkg.GenerateFruitName(),
		Expires: time.Now().Add(that.ttl).Unix(),
	}

	if err := that.userRepo.CreateOrUpdate(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (that *GameManager) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	user, err := that.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// GetOrCreateGame - returns the user's current game, or starts a fresh
// single-player game against the automated opponent.
func (that *GameManager) GetOrCreateGame(ctx context.Context, userID, difficulty string) (*entity.Game, error) {
	user, err := that.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	if user.GameID != "" {
		game, err := that.gameRepo.GetByID(ctx, user.GameID)
		if err == nil {
			return game, nil
		}
		// The record may have expired; fall through and start over.
	}

	game := entity.NewGame(pkg.GenerateGameID(), time.Now().Add(that.ttl).Unix())
	game.Difficulty = difficulty

	if _, err = game.BindPlayer(user.ID); err != nil {
		return nil, fmt.Errorf("failed to bind player: %w", err)
	}

	// Single-player games are playable immediately; the bot needs no binding.
	game.Status = entity.StatusOngoing

	if err = that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	user.GameID = game.ID
	if err = that.userRepo.CreateOrUpdate(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return game, nil
}

// CreateMultiplayerGame - binds inviter and acceptor into a fresh game.
// The inviter takes X and moves first.
func (that *GameManager) CreateMultiplayerGame(ctx context.Context, inviterID, acceptorID string) (*entity.Game, error) {
	game := entity.NewGame(pkg.GenerateGameID(), time.Now().Add(that.ttl).Unix())

	for _, id := range []string{inviterID, acceptorID} {
		user, err := that.userRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get user by id: %w", err)
		}

		if _, err = game.BindPlayer(user.ID); err != nil {
			return nil, fmt.Errorf("failed to bind player: %w", err)
		}

		user.GameID = game.ID
		if err = that.userRepo.CreateOrUpdate(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	return game, nil
}

// ApplyMove - applies the user's move and, in a single-player game, the
// automated reply. The delegate engine is consulted with no game lock held;
// its move goes through the same serialized validation as a human's.
func (that *GameManager) ApplyMove(ctx context.Context, userID, gameID string, pos sidestacker.Position) (*entity.Game, error) {
	user, err := that.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	game, err := that.applyMove(ctx, gameID, moveBy{userID: user.ID, winnerName: user.Name}, pos)
	if err != nil {
		return game, err
	}

	if game.IsMultiplayer() || !game.IsOngoing() {
		return game, nil
	}

	return that.applyBotMove(ctx, game)
}

// moveBy identifies the mover: either a bound user or the bot's symbol.
type moveBy struct {
	userID     string
	symbol     sidestacker.Cell
	winnerName string
}

func (that *GameManager) applyMove(ctx context.Context, gameID string, mover moveBy, pos sidestacker.Position) (*entity.Game, error) {
	that.locks.Lock(gameID)
	defer that.locks.Unlock(gameID)

	game, err := that.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if game.IsFinished() {
		return game, apperror.ErrGameFinished
	}

	if game.IsWaiting() {
		return game, apperror.ErrGameIsNotStarted
	}

	symbol := mover.symbol
	if mover.userID != "" {
		symbol = game.SymbolOf(mover.userID)
	}

	if symbol == sidestacker.EmptyCell || game.Turn != symbol {
		return game, apperror.ErrNotYourTurn
	}

	// Validation before any write: a rejected move changes nothing.
	board, err := sidestacker.Place(game.Board, pos, symbol)
	if err != nil {
		return game, err
	}

	game.Board = board

	switch {
	case sidestacker.IsWinning(game.Board, pos, symbol):
		game.Finish(mover.winnerName)
	case sidestacker.IsFull(game.Board):
		game.Finish("")
	default:
		game.Turn = entity.ToggleSymbol(symbol)
	}

	if err = that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	return game, nil
}

func (that *GameManager) applyBotMove(ctx context.Context, game *entity.Game) (*entity.Game, error) {
	log := that.logger.With("method", "applyBotMove", "gameID", game.ID)

	botSymbol := game.Turn

	pos, err := that.strategyFor(game.Difficulty).SelectMove(ctx, game.Board, botSymbol)
	if err != nil {
		return nil, fmt.Errorf("bot failed to select move: %w", err)
	}

	updated, err := that.applyMove(ctx, game.ID, moveBy{symbol: botSymbol, winnerName: BotWinnerName}, pos)
	if err != nil {
		// The game may have been reset or quit while the engine was thinking.
		log.Warn("bot move rejected", "error", err)
		if updated == nil {
			return game, nil
		}
	}

	return updated, nil
}

// ResetGame - permitted at any time; clears board and winner and hands the
// first move to the requester's symbol.
func (that *GameManager) ResetGame(ctx context.Context, userID, gameID string) (*entity.Game, error) {
	that.locks.Lock(gameID)
	defer that.locks.Unlock(gameID)

	game, err := that.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	game.Reset(game.SymbolOf(userID))

	if err = that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	return game, nil
}

// QuitGame - ends the game with no winner and unbinds both participants.
func (that *GameManager) QuitGame(ctx context.Context, gameID string) (*entity.Game, error) {
	that.locks.Lock(gameID)
	defer that.locks.Unlock(gameID)

	game, err := that.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if !game.IsFinished() {
		game.Finish("")
	}

	if err = that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	that.unbindPlayers(ctx, game)

	return game, nil
}

func (that *GameManager) unbindPlayers(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "unbindPlayers", "gameID", game.ID)

	for userID := range game.Players {
		user, err := that.userRepo.GetByID(ctx, userID)
		if err != nil {
			log.Error("failed to get user", "userID", userID, "error", err)
			continue
		}

		if user.GameID != game.ID {
			continue
		}

		user.GameID = ""
		if err = that.userRepo.CreateOrUpdate(ctx, user); err != nil {
			log.Error("failed to update user", "userID", userID, "error", err)
		}
	}
}
