package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rocketscienceinc/sidestacker-backend/internal/apperror"
	"github.com/rocketscienceinc/sidestacker-backend/internal/sidestacker"
)

type loginResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

type moveRequest struct {
	Row    int    `json:"i"`
	Col    int    `json:"j"`
	GameID string `json:"id"`
	// Player and Winner are what the client believes; the session re-derives
	// both and they are accepted only when the board agrees.
	Player string `json:"player"`
	Winner string `json:"winner"`
}

type resetRequest struct {
	GameID string `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

// handleLogin - issues an identity with a generated display name and a
// bearer token. An existing token in the Authorization header renews the
// same identity.
func (that *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleLogin")

	var knownID string
	if token := bearerToken(r); token != "" {
		if id, err := that.auth.ParseUserID(token); err == nil {
			knownID = id
		}
	}

	user, err := that.uGame.GetOrCreateUser(r.Context(), knownID)
	if err != nil {
		log.Error("failed to get or create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	token, err := that.auth.GenerateToken(user)
	if err != nil {
		log.Error("failed to generate token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		ID:    user.ID,
		Name:  user.Name,
		Token: token,
	})
}

// handleBoard - returns the caller's current game snapshot, creating a
// single-player game when none exists. The difficulty query parameter picks
// the automated opponent tier for a fresh game.
func (that *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleBoard")

	userID := userIDFrom(r.Context())
	difficulty := r.URL.Query().Get("difficulty")

	game, err := that.uGame.GetOrCreateGame(r.Context(), userID, difficulty)
	if err != nil {
		log.Error("failed to get or create game", "userID", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get the board")
		return
	}

	writeJSON(w, http.StatusOK, game)
}

func (that *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleMove")

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := userIDFrom(r.Context())
	pos := sidestacker.Position{Row: req.Row, Col: req.Col}

	game, err := that.uGame.ApplyMove(r.Context(), userID, req.GameID, pos)

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, game)
	case errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, sidestacker.ErrIllegalPlacement),
		errors.Is(err, sidestacker.ErrOutOfBounds):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperror.ErrGameFinished):
		writeError(w, http.StatusConflict, apperror.ErrGameFinished.Error())
	case errors.Is(err, apperror.ErrGameNotFound):
		writeError(w, http.StatusNotFound, apperror.ErrGameNotFound.Error())
	default:
		log.Error("failed to apply move", "userID", userID, "gameID", req.GameID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to apply move")
	}
}

func (that *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleReset")

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := userIDFrom(r.Context())

	game, err := that.uGame.ResetGame(r.Context(), userID, req.GameID)
	if err != nil {
		if errors.Is(err, apperror.ErrGameNotFound) {
			writeError(w, http.StatusNotFound, apperror.ErrGameNotFound.Error())
			return
		}

		log.Error("failed to reset game", "userID", userID, "gameID", req.GameID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset game")
		return
	}

	writeJSON(w, http.StatusOK, game)
}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func userIDFrom(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
