package entity

// User identifies one connected participant. It is created at login and
// lives as long as its session token.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	GameID  string `json:"game_id,omitempty"`
	Expires int64  `json:"expires"`
}

// OnlineUser is a presence entry broadcast to every connected socket.
// Available flips to false exactly while the user is inside an active
// two-player game.
type OnlineUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
}
