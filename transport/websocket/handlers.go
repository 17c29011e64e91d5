package websocket

import (
	"context"
)

// handleAvailable - flips the sender's presence entry and rebroadcasts.
func (that *Server) handleAvailable(cl *client, available bool) {
	that.mu.Lock()
	cl.available = available
	that.mu.Unlock()

	that.broadcastPresence()
}

// handleInvite - relays an invitation to the target. An invitation to a
// participant who is not currently available is silently dropped and
// presence state is untouched.
func (that *Server) handleInvite(cl *client, targetID string) {
	log := that.logger.With("method", "handleInvite", "from", cl.userID, "to", targetID)

	that.mu.RLock()
	target, ok := that.clients[targetID]
	available := ok && target.available
	that.mu.RUnlock()

	if !available {
		log.Info("invite dropped, target unavailable")
		return
	}

	that.sendTo(targetID, serverMessage{
		Invite: &userRef{ID: cl.userID, Name: cl.name},
	})
}

// handleAccept - promotes inviter and acceptor into a fresh game: both are
// paired, marked unavailable, and pushed the new game. A stale accept, one
// arriving after either side became unavailable or got paired elsewhere, is
// dropped the same way a stale invite is.
func (that *Server) handleAccept(ctx context.Context, cl *client, inviterID string) {
	log := that.logger.With("method", "handleAccept", "inviter", inviterID, "acceptor", cl.userID)

	that.mu.RLock()
	inviter, ok := that.clients[inviterID]
	_, inviterPaired := that.pairings[inviterID]
	_, acceptorPaired := that.pairings[cl.userID]
	free := ok && inviter.available && cl.available && !inviterPaired && !acceptorPaired
	that.mu.RUnlock()

	if !free {
		log.Info("accept dropped, participant unavailable or already paired")
		return
	}

	game, err := that.uGame.CreateMultiplayerGame(ctx, inviterID, cl.userID)
	if err != nil {
		log.Error("failed to create multiplayer game", "error", err)
		return
	}

	that.mu.Lock()
	inviter.available = false
	cl.available = false
	that.pairings[inviterID] = pairing{peerID: cl.userID, gameID: game.ID}
	that.pairings[cl.userID] = pairing{peerID: inviterID, gameID: game.ID}
	that.mu.Unlock()

	that.broadcastPresence()

	that.sendTo(inviterID, serverMessage{
		AcceptNotification: &userRef{ID: cl.userID, Name: cl.name},
	})
	that.sendTo(inviterID, serverMessage{MultiplayerGame: game})
	that.sendTo(cl.userID, serverMessage{MultiplayerGame: game})

	log.Info("multiplayer game created", "gameID", game.ID)
}

// handleMove - relays an applied move to the paired opponent. The session
// already mutated the game on the HTTP endpoint; nothing is re-derived here.
func (that *Server) handleMove(cl *client, move *moveRelay) {
	log := that.logger.With("method", "handleMove", "from", cl.userID)

	that.mu.RLock()
	pair, ok := that.pairings[cl.userID]
	that.mu.RUnlock()

	if !ok || pair.gameID != move.GameID {
		log.Warn("move relay dropped, sender is not paired to that game", "gameID", move.GameID)
		return
	}

	that.sendTo(pair.peerID, serverMessage{
		UpdatedGame: &updatedGame{
			ID:     move.GameID,
			Board:  move.UpdatedBoard,
			Turn:   move.Turn,
			Winner: move.Winner,
		},
	})
}

// handleQuit - dissolves the sender's pairing: the game ends with no
// winner, both sides become available again and the remaining participant
// is notified.
func (that *Server) handleQuit(ctx context.Context, cl *client) {
	that.endPairing(ctx, cl, true)
}

// handleDisconnect - a closed connection releases its presence entry; a
// disconnect mid-game is treated exactly like a quit.
func (that *Server) handleDisconnect(ctx context.Context, cl *client) {
	log := that.logger.With("method", "handleDisconnect", "userID", cl.userID)

	that.endPairing(ctx, cl, false)

	that.mu.Lock()
	// Only deregister if this socket is still the current one for the
	// identity; a reconnect may already have replaced it.
	if current, ok := that.clients[cl.userID]; ok && current == cl {
		delete(that.clients, cl.userID)
		close(cl.send)
	}
	that.mu.Unlock()

	that.broadcastPresence()

	log.Info("websocket connection closed")
}

// endPairing tears down the sender's pairing, if any, finishing the game
// with no winner and notifying the peer.
func (that *Server) endPairing(ctx context.Context, cl *client, stayOnline bool) {
	log := that.logger.With("method", "endPairing", "userID", cl.userID)

	that.mu.Lock()
	pair, ok := that.pairings[cl.userID]
	if !ok {
		that.mu.Unlock()
		return
	}

	delete(that.pairings, cl.userID)
	delete(that.pairings, pair.peerID)

	cl.available = stayOnline
	if peer, connected := that.clients[pair.peerID]; connected {
		peer.available = true
	}
	that.mu.Unlock()

	if _, err := that.uGame.QuitGame(ctx, pair.gameID); err != nil {
		log.Error("failed to quit game", "gameID", pair.gameID, "error", err)
	}

	that.sendTo(pair.peerID, serverMessage{
		QuitNotification: &userRef{ID: cl.userID, Name: cl.name},
	})

	that.broadcastPresence()

	log.Info("pairing ended", "gameID", pair.gameID, "peer", pair.peerID)
}
