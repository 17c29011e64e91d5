package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/sidestacker-backend/internal/entity"
	"github.com/rocketscienceinc/sidestacker-backend/internal/service"
	"github.com/rocketscienceinc/sidestacker-backend/internal/sidestacker"
)

type gameUseCase interface {
	GetOrCreateUser(ctx context.Context, id string) (*entity.User, error)
	GetUserByID(ctx context.Context, id string) (*entity.User, error)

	GetOrCreateGame(ctx context.Context, userID, difficulty string) (*entity.Game, error)
	ApplyMove(ctx context.Context, userID, gameID string, pos sidestacker.Position) (*entity.Game, error)
	ResetGame(ctx context.Context, userID, gameID string) (*entity.Game, error)
}

type Server struct {
	logger *slog.Logger

	auth  service.AuthService
	uGame gameUseCase
}

func New(logger *slog.Logger, auth service.AuthService, uGame gameUseCase) *Server {
	return &Server{
		logger: logger,
		auth:   auth,
		uGame:  uGame,
	}
}

func (that *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", that.handlePing)
	mux.HandleFunc("GET /login", that.handleLogin)
	mux.HandleFunc("GET /board", that.withAuth(that.handleBoard))
	mux.HandleFunc("POST /move", that.withAuth(that.handleMove))
	mux.HandleFunc("POST /reset", that.withAuth(that.handleReset))

	return mux
}

// Start - starts the HTTP API.
func (that *Server) Start(port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
