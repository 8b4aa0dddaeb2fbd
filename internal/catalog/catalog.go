// Package catalog holds the bundled list of games and the payment methods
// the storefront offers. Neither comes from the backend.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/gamex/gamex-cli/internal/resolve"
	"github.com/gamex/gamex-cli/internal/validation"
)

//go:embed games.json
var gamesJSON []byte

// Game is one entry of the bundled catalog. CategoryID is the backend
// category whose products are the game's top-up packages.
type Game struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Icon           string `json:"icon,omitempty"`
	UsesServerZone bool   `json:"uses_server_zone"`
	CategoryID     int    `json:"category_id"`
}

// Target is a validated delivery destination.
type Target struct {
	PlayerID string
	ServerID string
}

var (
	loadOnce sync.Once
	games    []Game
	loadErr  error
)

func parse(data []byte) ([]Game, error) {
	var out []Game
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("invalid game catalog: %w", err)
	}
	seen := make(map[string]bool, len(out))
	for i, g := range out {
		if strings.TrimSpace(g.ID) == "" {
			return nil, fmt.Errorf("invalid game catalog: entry %d has no id", i)
		}
		if seen[g.ID] {
			return nil, fmt.Errorf("invalid game catalog: duplicate id %q", g.ID)
		}
		seen[g.ID] = true
	}
	return out, nil
}

// Games returns the bundled catalog in file order.
func Games() ([]Game, error) {
	loadOnce.Do(func() {
		games, loadErr = parse(gamesJSON)
	})
	if loadErr != nil {
		return nil, loadErr
	}
	out := make([]Game, len(games))
	copy(out, games)
	return out, nil
}

// Find resolves a game by id, exact name or fuzzy name.
func Find(query string) (Game, error) {
	all, err := Games()
	if err != nil {
		return Game{}, err
	}
	items := make([]resolve.Named, len(all))
	for i, g := range all {
		items[i] = resolve.Named{Key: g.ID, Name: g.Name}
	}
	key, err := resolve.FuzzyMatch(query, items)
	if err != nil {
		return Game{}, err
	}
	for _, g := range all {
		if g.ID == key {
			return g, nil
		}
	}
	return Game{}, &resolve.NotFoundError{Query: query}
}

// ByCategory returns the game bound to a backend category.
func ByCategory(categoryID int) (Game, bool) {
	all, err := Games()
	if err != nil {
		return Game{}, false
	}
	for _, g := range all {
		if g.CategoryID == categoryID {
			return g, true
		}
	}
	return Game{}, false
}

// ValidateTarget checks the player id and, for games that use one, the
// server zone. The zone is dropped for games that do not.
func (g Game) ValidateTarget(playerID, zone string) (Target, error) {
	playerID = strings.TrimSpace(playerID)
	if err := validation.ValidatePlayerID(playerID); err != nil {
		return Target{}, err
	}
	if !g.UsesServerZone {
		return Target{PlayerID: playerID}, nil
	}
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return Target{}, fmt.Errorf("%s requires a server zone", g.Name)
	}
	if strings.ContainsAny(zone, " \t\r\n") {
		return Target{}, fmt.Errorf("server zone must not contain whitespace")
	}
	return Target{PlayerID: playerID, ServerID: zone}, nil
}
