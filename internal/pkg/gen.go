package pkg

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

var fruitNames = []string{
	"Apple", "Apricot", "Banana", "Cherry", "Fig", "Grape", "Guava",
	"Kiwi", "Lemon", "Lime", "Lychee", "Mango", "Melon", "Papaya",
	"Peach", "Pear", "Plum", "Pomelo", "Quince", "Raisin",
}

var fruitAdjectives = []string{
	"Bold", "Brave", "Bright", "Calm", "Clever", "Eager", "Fancy",
	"Happy", "Jolly", "Lucky", "Merry", "Quick", "Quiet", "Sly",
	"Sunny", "Swift", "Witty", "Zesty",
}

// GenerateGameID - generates a unique identifier for a game.
func GenerateGameID() string {
	return uuid.NewString()
}

// GenerateUserID - generates a unique identifier for a user session.
func GenerateUserID() string {
	return uuid.NewString()
}

// GenerateFruitName - generates a readable display name like "Zesty Mango".
func GenerateFruitName() string {
	adjective := fruitAdjectives[rand.Intn(len(fruitAdjectives))] //nolint: gosec // display names only
	fruit := fruitNames[rand.Intn(len(fruitNames))]               //nolint: gosec // display names only

	return fmt.Sprintf("%s %s", adjective, fruit)
}
