package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/sidestacker-backend/internal/apperror"
	"github.com/rocketscienceinc/sidestacker-backend/internal/entity"
	"github.com/rocketscienceinc/sidestacker-backend/internal/service"
	"github.com/rocketscienceinc/sidestacker-backend/internal/sidestacker"
)

const readTimeout = 2 * time.Second

// fakeUseCase serves a fixed set of users and records pairing calls.
type fakeUseCase struct {
	mu    sync.Mutex
	users map[string]*entity.User

	createdGame *entity.Game
	created     int
	inviterID   string
	acceptorID  string
	quitGameID  string
}

func newFakeUseCase(users ...*entity.User) *fakeUseCase {
	byID := make(map[string]*entity.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}
	return &fakeUseCase{users: byID}
}

func (that *fakeUseCase) GetUserByID(_ context.Context, id string) (*entity.User, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	user, ok := that.users[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	return user, nil
}

func (that *fakeUseCase) CreateMultiplayerGame(_ context.Context, inviterID, acceptorID string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.created++
	that.inviterID = inviterID
	that.acceptorID = acceptorID

	game := entity.NewGame("game-1", time.Now().Add(time.Hour).Unix())
	if _, err := game.BindPlayer(inviterID); err != nil {
		return nil, err
	}
	if _, err := game.BindPlayer(acceptorID); err != nil {
		return nil, err
	}

	that.createdGame = game
	return game, nil
}

func (that *fakeUseCase) QuitGame(_ context.Context, gameID string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.quitGameID = gameID

	game := entity.NewGame(gameID, time.Now().Add(time.Hour).Unix())
	game.Finish("")
	return game, nil
}

func newTestCoordinator(t *testing.T, uGame *fakeUseCase) (*httptest.Server, service.AuthService) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	auth := service.NewAuthService("test-secret", time.Hour)
	srv := New(logger, auth, uGame)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.handleConnection(r.Context(), w, r)
	}))
	t.Cleanup(ts.Close)

	return ts, auth
}

func dial(t *testing.T, ts *httptest.Server, auth service.AuthService, user *entity.User) *websocket.Conn {
	t.Helper()

	token, err := auth.GenerateToken(user)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/?token=" + token

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// waitFor reads envelopes until one satisfies the predicate. Presence
// broadcasts interleave with everything else, so tests skip what they are
// not looking for.
func waitFor(t *testing.T, conn *websocket.Conn, match func(serverMessage) bool) serverMessage {
	t.Helper()

	deadline := time.Now().Add(readTimeout)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))

		var message serverMessage
		err := conn.ReadJSON(&message)
		require.NoError(t, err, "timed out waiting for a matching envelope")

		if match(message) {
			return message
		}
	}
}

// expectNone asserts that no envelope matching the predicate arrives within
// a short window.
func expectNone(t *testing.T, conn *websocket.Conn, match func(serverMessage) bool) {
	t.Helper()

	deadline := time.Now().Add(300 * time.Millisecond)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return
		}

		var message serverMessage
		if err := conn.ReadJSON(&message); err != nil {
			return // timed out without a match
		}

		require.False(t, match(message), "received an envelope that should not have been sent")
	}
}

func onlineEntry(message serverMessage, userID string) (entity.OnlineUser, bool) {
	for _, user := range message.Online {
		if user.ID == userID {
			return user, true
		}
	}
	return entity.OnlineUser{}, false
}

func TestServer_Auth(t *testing.T) {
	t.Run("Rejects a bad token", func(t *testing.T) {
		ts, _ := newTestCoordinator(t, newFakeUseCase())

		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/?token=not-a-token"

		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Rejects an unknown user", func(t *testing.T) {
		ts, auth := newTestCoordinator(t, newFakeUseCase())

		token, err := auth.GenerateToken(&entity.User{ID: "ghost"})
		require.NoError(t, err)

		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/?token=" + token

		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestServer_Presence(t *testing.T) {
	alice := &entity.User{ID: "user-a", Name: "Alice"}
	bob := &entity.User{ID: "user-b", Name: "Bob"}

	t.Run("A connection joins the online list as available", func(t *testing.T) {
		ts, auth := newTestCoordinator(t, newFakeUseCase(alice))

		// When: Alice connects
		connA := dial(t, ts, auth, alice)

		// Then: she receives a presence snapshot listing herself
		message := waitFor(t, connA, func(m serverMessage) bool {
			_, ok := onlineEntry(m, "user-a")
			return ok
		})

		entry, _ := onlineEntry(message, "user-a")
		assert.Equal(t, "Alice", entry.Name)
		assert.True(t, entry.Available)
	})

	t.Run("Everyone sees a newcomer, sorted by name", func(t *testing.T) {
		ts, auth := newTestCoordinator(t, newFakeUseCase(alice, bob))

		connA := dial(t, ts, auth, alice)

		// When: Bob connects after Alice
		dial(t, ts, auth, bob)

		// Then: Alice's next snapshot lists both, ordered by display name
		message := waitFor(t, connA, func(m serverMessage) bool {
			_, ok := onlineEntry(m, "user-b")
			return ok
		})

		require.Len(t, message.Online, 2)
		assert.Equal(t, "Alice", message.Online[0].Name)
		assert.Equal(t, "Bob", message.Online[1].Name)
	})

	t.Run("Toggling availability is broadcast", func(t *testing.T) {
		ts, auth := newTestCoordinator(t, newFakeUseCase(alice, bob))

		connA := dial(t, ts, auth, alice)
		connB := dial(t, ts, auth, bob)

		// When: Bob opts out of invitations
		unavailable := false
		require.NoError(t, connB.WriteJSON(clientMessage{Available: &unavailable}))

		// Then: Alice sees Bob as unavailable
		message := waitFor(t, connA, func(m serverMessage) bool {
			entry, ok := onlineEntry(m, "user-b")
			return ok && !entry.Available
		})

		entry, _ := onlineEntry(message, "user-b")
		assert.False(t, entry.Available)
	})
}

func TestServer_Invite(t *testing.T) {
	alice := &entity.User{ID: "user-a", Name: "Alice"}
	bob := &entity.User{ID: "user-b", Name: "Bob"}

	t.Run("An invitation reaches an available target", func(t *testing.T) {
		ts, auth := newTestCoordinator(t, newFakeUseCase(alice, bob))

		connA := dial(t, ts, auth, alice)
		connB := dial(t, ts, auth, bob)

		// When: Alice invites Bob
		invite := "user-b"
		require.NoError(t, connA.WriteJSON(clientMessage{Invite: &invite}))

		// Then: Bob receives the invitation with Alice's identity
		message := waitFor(t, connB, func(m serverMessage) bool {
			return m.Invite != nil
		})

		assert.Equal(t, "user-a", message.Invite.ID)
		assert.Equal(t, "Alice", message.Invite.Name)
	})

	t.Run("An invitation to an unavailable target is dropped", func(t *testing.T) {
		ts, auth := newTestCoordinator(t, newFakeUseCase(alice, bob))

		connA := dial(t, ts, auth, alice)
		connB := dial(t, ts, auth, bob)

		unavailable := false
		require.NoError(t, connB.WriteJSON(clientMessage{Available: &unavailable}))

		// Wait until the opt-out is visible before inviting.
		waitFor(t, connA, func(m serverMessage) bool {
			entry, ok := onlineEntry(m, "user-b")
			return ok && !entry.Available
		})

		// When: Alice invites Bob anyway
		invite := "user-b"
		require.NoError(t, connA.WriteJSON(clientMessage{Invite: &invite}))

		// Then: Bob never sees it
		expectNone(t, connB, func(m serverMessage) bool {
			return m.Invite != nil
		})
	})
}

// pairUp drives the invite/accept handshake and returns both sockets with
// the pairing established.
func pairUp(t *testing.T, ts *httptest.Server, auth service.AuthService, alice, bob *entity.User) (*websocket.Conn, *websocket.Conn, *entity.Game) {
	t.Helper()

	connA := dial(t, ts, auth, alice)
	connB := dial(t, ts, auth, bob)

	invite := bob.ID
	require.NoError(t, connA.WriteJSON(clientMessage{Invite: &invite}))

	waitFor(t, connB, func(m serverMessage) bool { return m.Invite != nil })

	accept := alice.ID
	require.NoError(t, connB.WriteJSON(clientMessage{Accept: &accept}))

	message := waitFor(t, connB, func(m serverMessage) bool { return m.MultiplayerGame != nil })

	return connA, connB, message.MultiplayerGame
}

func TestServer_Accept(t *testing.T) {
	alice := &entity.User{ID: "user-a", Name: "Alice"}
	bob := &entity.User{ID: "user-b", Name: "Bob"}

	uGame := newFakeUseCase(alice, bob)
	ts, auth := newTestCoordinator(t, uGame)

	// When: Bob accepts Alice's invitation
	connA, _, game := pairUp(t, ts, auth, alice, bob)

	// Then: the game was created with Alice as inviter
	assert.Equal(t, "user-a", uGame.inviterID)
	assert.Equal(t, "user-b", uGame.acceptorID)
	assert.Equal(t, sidestacker.PlayerX, game.SymbolOf("user-a"))
	assert.Equal(t, sidestacker.PlayerO, game.SymbolOf("user-b"))

	// And: both drop out of the available pool
	presence := waitFor(t, connA, func(m serverMessage) bool {
		a, okA := onlineEntry(m, "user-a")
		b, okB := onlineEntry(m, "user-b")
		return okA && okB && !a.Available && !b.Available
	})
	require.NotNil(t, presence.Online)

	// And: Alice is told who accepted and receives the same game
	accepted := waitFor(t, connA, func(m serverMessage) bool { return m.AcceptNotification != nil })
	assert.Equal(t, "user-b", accepted.AcceptNotification.ID)

	pushed := waitFor(t, connA, func(m serverMessage) bool { return m.MultiplayerGame != nil })
	assert.Equal(t, game.ID, pushed.MultiplayerGame.ID)
}

func TestServer_StaleAccept(t *testing.T) {
	alice := &entity.User{ID: "user-a", Name: "Alice"}
	bob := &entity.User{ID: "user-b", Name: "Bob"}
	carol := &entity.User{ID: "user-c", Name: "Carol"}

	uGame := newFakeUseCase(alice, bob, carol)
	ts, auth := newTestCoordinator(t, uGame)

	// Given: Alice already paired with Bob
	connA, connB, game := pairUp(t, ts, auth, alice, bob)
	connC := dial(t, ts, auth, carol)

	// When: Carol accepts an invitation Alice sent before pairing up
	accept := "user-a"
	require.NoError(t, connC.WriteJSON(clientMessage{Accept: &accept}))

	// Then: no second game is created and Carol gets nothing
	expectNone(t, connC, func(m serverMessage) bool { return m.MultiplayerGame != nil })

	uGame.mu.Lock()
	created := uGame.created
	uGame.mu.Unlock()
	assert.Equal(t, 1, created)

	// And: the original pairing still relays moves
	require.NoError(t, connA.WriteJSON(clientMessage{Move: &moveRelay{
		GameID:       game.ID,
		PlayerID:     "user-a",
		UpdatedBoard: sidestacker.NewBoard(),
	}}))

	message := waitFor(t, connB, func(m serverMessage) bool { return m.UpdatedGame != nil })
	assert.Equal(t, game.ID, message.UpdatedGame.ID)
}

func TestServer_MoveRelay(t *testing.T) {
	alice := &entity.User{ID: "user-a", Name: "Alice"}
	bob := &entity.User{ID: "user-b", Name: "Bob"}

	t.Run("An applied move is forwarded to the opponent", func(t *testing.T) {
		ts, auth := newTestCoordinator(t, newFakeUseCase(alice, bob))
		connA, connB, game := pairUp(t, ts, auth, alice, bob)

		board := sidestacker.NewBoard()
		board[0][0] = sidestacker.PlayerX

		// When: Alice relays her applied move
		require.NoError(t, connA.WriteJSON(clientMessage{Move: &moveRelay{
			GameID:       game.ID,
			PlayerID:     "user-a",
			Turn:         sidestacker.PlayerO,
			UpdatedBoard: board,
		}}))

		// Then: Bob receives the updated game
		message := waitFor(t, connB, func(m serverMessage) bool { return m.UpdatedGame != nil })
		assert.Equal(t, game.ID, message.UpdatedGame.ID)
		assert.Equal(t, board, message.UpdatedGame.Board)
		assert.Equal(t, sidestacker.PlayerO, message.UpdatedGame.Turn)
	})

	t.Run("A relay for the wrong game is dropped", func(t *testing.T) {
		ts, auth := newTestCoordinator(t, newFakeUseCase(alice, bob))
		connA, connB, _ := pairUp(t, ts, auth, alice, bob)

		// When: Alice relays a move for a game she is not paired to
		require.NoError(t, connA.WriteJSON(clientMessage{Move: &moveRelay{
			GameID:       "some-other-game",
			PlayerID:     "user-a",
			UpdatedBoard: sidestacker.NewBoard(),
		}}))

		// Then: Bob never sees it
		expectNone(t, connB, func(m serverMessage) bool { return m.UpdatedGame != nil })
	})
}

func TestServer_Quit(t *testing.T) {
	alice := &entity.User{ID: "user-a", Name: "Alice"}
	bob := &entity.User{ID: "user-b", Name: "Bob"}

	t.Run("Quitting notifies the opponent and frees both", func(t *testing.T) {
		uGame := newFakeUseCase(alice, bob)
		ts, auth := newTestCoordinator(t, uGame)
		connA, connB, game := pairUp(t, ts, auth, alice, bob)

		// When: Alice quits
		quit := game.ID
		require.NoError(t, connA.WriteJSON(clientMessage{Quit: &quit}))

		// Then: Bob is notified and the game was ended
		message := waitFor(t, connB, func(m serverMessage) bool { return m.QuitNotification != nil })
		assert.Equal(t, "user-a", message.QuitNotification.ID)

		waitFor(t, connB, func(m serverMessage) bool {
			entry, ok := onlineEntry(m, "user-b")
			return ok && entry.Available
		})

		uGame.mu.Lock()
		defer uGame.mu.Unlock()
		assert.Equal(t, game.ID, uGame.quitGameID)
	})

	t.Run("A disconnect mid-game counts as a quit", func(t *testing.T) {
		uGame := newFakeUseCase(alice, bob)
		ts, auth := newTestCoordinator(t, uGame)
		connA, connB, game := pairUp(t, ts, auth, alice, bob)

		// When: Alice's connection drops
		connA.Close()

		// Then: Bob is notified exactly as if she had quit
		message := waitFor(t, connB, func(m serverMessage) bool { return m.QuitNotification != nil })
		assert.Equal(t, "user-a", message.QuitNotification.ID)

		uGame.mu.Lock()
		defer uGame.mu.Unlock()
		assert.Equal(t, game.ID, uGame.quitGameID)
	})
}

func TestServer_ReconnectDuringBroadcast(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	srv := New(logger, service.NewAuthService("test-secret", time.Hour), newFakeUseCase())

	// Given: a large roster of registered connections
	for i := 0; i < 300; i++ {
		srv.register(newClient(nil, fmt.Sprintf("user-%03d", i), fmt.Sprintf("User %03d", i)))
	}

	// When: one identity reconnects in a tight loop while presence
	// broadcasts run concurrently; each reconnect closes the replaced
	// socket's send channel
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				srv.register(newClient(nil, "user-zzz", "Straggler"))
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				srv.broadcastPresence()
			}
		}
	}()

	// Then: the hub survives; a send on a closed channel would panic here
	time.Sleep(500 * time.Millisecond)
	close(done)
	wg.Wait()
}
