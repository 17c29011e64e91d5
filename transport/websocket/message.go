package websocket

import (
	"github.com/rocketscienceinc/sidestacker-backend/internal/entity"
	"github.com/rocketscienceinc/sidestacker-backend/internal/sidestacker"
)

// clientMessage is the envelope read from a socket. Exactly one top-level
// key is set per message.
type clientMessage struct {
	Available *bool      `json:"available,omitempty"`
	Invite    *string    `json:"invite,omitempty"`
	Accept    *string    `json:"accept,omitempty"`
	Quit      *string    `json:"quit,omitempty"`
	Move      *moveRelay `json:"move,omitempty"`
}

// moveRelay carries an already-applied move to the paired opponent. The
// authoritative mutation happened on the HTTP move endpoint; the coordinator
// only forwards the result.
type moveRelay struct {
	GameID       string            `json:"game_id"`
	PlayerID     string            `json:"player_id"`
	Turn         sidestacker.Cell  `json:"turn"`
	UpdatedBoard sidestacker.Board `json:"updated_board"`
	Winner       string            `json:"winner"`
}

// serverMessage is the envelope written to a socket, one key per concern.
type serverMessage struct {
	Online             []entity.OnlineUser `json:"online,omitempty"`
	Invite             *userRef            `json:"invite,omitempty"`
	AcceptNotification *userRef            `json:"accept_notification,omitempty"`
	QuitNotification   *userRef            `json:"quit_notification,omitempty"`
	MultiplayerGame    *entity.Game        `json:"multiplayer_game,omitempty"`
	UpdatedGame        *updatedGame        `json:"updated_game,omitempty"`
}

type userRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type updatedGame struct {
	ID     string            `json:"id"`
	Board  sidestacker.Board `json:"board"`
	Turn   sidestacker.Cell  `json:"turn"`
	Winner string            `json:"winner"`
}
