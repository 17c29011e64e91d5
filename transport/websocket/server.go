package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/sidestacker-backend/internal/entity"
	"github.com/rocketscienceinc/sidestacker-backend/internal/service"
)

type gameUseCase interface {
	GetUserByID(ctx context.Context, id string) (*entity.User, error)
	CreateMultiplayerGame(ctx context.Context, inviterID, acceptorID string) (*entity.Game, error)
	QuitGame(ctx context.Context, gameID string) (*entity.Game, error)
}

// pairing binds two connected participants to one active game.
type pairing struct {
	peerID string
	gameID string
}

// Server is the realtime coordinator: it owns the process-wide presence
// set and the invite/accept/quit handshake, and relays applied moves
// between the two sockets of a pairing. Presence starts empty and is
// mutated only through the server's own handlers.
type Server struct {
	logger *slog.Logger

	auth  service.AuthService
	uGame gameUseCase

	upgrader websocket.Upgrader

	mu       sync.RWMutex
	clients  map[string]*client
	pairings map[string]pairing
}

func New(logger *slog.Logger, auth service.AuthService, uGame gameUseCase) *Server {
	return &Server{
		logger: logger,
		auth:   auth,
		uGame:  uGame,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
		clients:  make(map[string]*client),
		pairings: make(map[string]pairing),
	}
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.handleConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 0, // persistent connections; read deadlines are per-message
		IdleTimeout: 2 * pongWait,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// handleConnection - authenticates the token query parameter, upgrades the
// connection and registers presence.
func (that *Server) handleConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleConnection")

	userID, err := that.auth.ParseUserID(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	user, err := that.uGame.GetUserByID(ctx, userID)
	if err != nil {
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	cl := newClient(conn, user.ID, user.Name)

	that.register(cl)
	that.broadcastPresence()

	log.Info("websocket connection established", "userID", user.ID, "name", user.Name)

	go cl.writePump()
	that.readPump(ctx, cl)
}

// readPump demultiplexes envelopes from one connection until it closes.
func (that *Server) readPump(ctx context.Context, cl *client) {
	log := that.logger.With("method", "readPump", "userID", cl.userID)

	defer func() {
		that.handleDisconnect(ctx, cl)
	}()

	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("unexpected close", "error", err)
			}
			return
		}

		var message clientMessage
		if err = json.Unmarshal(payload, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			continue
		}

		switch {
		case message.Available != nil:
			that.handleAvailable(cl, *message.Available)
		case message.Invite != nil:
			that.handleInvite(cl, *message.Invite)
		case message.Accept != nil:
			that.handleAccept(ctx, cl, *message.Accept)
		case message.Move != nil:
			that.handleMove(cl, message.Move)
		case message.Quit != nil:
			that.handleQuit(ctx, cl)
		default:
			log.Warn("unknown message envelope")
		}
	}
}

func (that *Server) register(cl *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	// A reconnect replaces the previous socket for the same identity. The
	// close happens under the write lock, ordered against the read-locked
	// sends in sendTo and broadcastPresence.
	if previous, ok := that.clients[cl.userID]; ok {
		close(previous.send)
	}

	that.clients[cl.userID] = cl
}

// sendTo queues a message for one participant. A slow consumer loses the
// message rather than blocking the rest of the process.
//
// Send channels are closed only under the write lock, so the non-blocking
// send must stay inside the read-locked section: a send after releasing it
// could hit a channel a concurrent register or disconnect just closed.
func (that *Server) sendTo(userID string, message serverMessage) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	cl, ok := that.clients[userID]
	if !ok {
		return
	}

	select {
	case cl.send <- message:
	default:
		that.logger.Warn("send buffer full, dropping message", "userID", userID)
	}
}

// broadcastPresence pushes the full online list to every connection. Sends
// happen under the read lock for the same reason as sendTo.
func (that *Server) broadcastPresence() {
	that.mu.RLock()
	defer that.mu.RUnlock()

	online := make([]entity.OnlineUser, 0, len(that.clients))
	for _, cl := range that.clients {
		online = append(online, entity.OnlineUser{
			ID:        cl.userID,
			Name:      cl.name,
			Available: cl.available,
		})
	}

	sort.Slice(online, func(i, j int) bool { return online[i].Name < online[j].Name })

	for _, cl := range that.clients {
		select {
		case cl.send <- serverMessage{Online: online}:
		default:
			that.logger.Warn("send buffer full, dropping presence broadcast", "userID", cl.userID)
		}
	}
}
