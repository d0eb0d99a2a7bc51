package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMessages are used for any message a variant leaves empty.
var DefaultMessages = Messages{
	Welcome:   "Join the tiles, get to 2048!",
	Won:       "You reached 2048! Keep playing or end the game?",
	GameOver:  "No tile can move that way. Try another direction.",
	BoardFull: "Game over! The board is full and nothing can merge.",
	Ended:     "Game ended. Start a new game to play again.",
	Continued: "Keep going! How far can you get?",
}

// DefaultGameConfig returns the classic 4x4 variant.
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:         "Classic",
		Description:  "The original 4x4 board with 2 and 4 tiles",
		Dimension:    4,
		WinTile:      DefaultWinTile,
		SpawnPolicy:  SpawnFreeCell,
		InitialTiles: DefaultInitialTiles,
		Messages:     DefaultMessages,
	}
}

// ApplyDefaults fills the optional fields a variant file may omit.
func ApplyDefaults(config *GameConfig) {
	if config.WinTile == 0 {
		config.WinTile = DefaultWinTile
	}
	if config.SpawnPolicy == "" {
		config.SpawnPolicy = SpawnFreeCell
	}
	if config.InitialTiles == 0 {
		config.InitialTiles = DefaultInitialTiles
	}

	m := &config.Messages
	for _, f := range []struct {
		dst *string
		def string
	}{
		{&m.Welcome, DefaultMessages.Welcome},
		{&m.Won, DefaultMessages.Won},
		{&m.GameOver, DefaultMessages.GameOver},
		{&m.BoardFull, DefaultMessages.BoardFull},
		{&m.Ended, DefaultMessages.Ended},
		{&m.Continued, DefaultMessages.Continued},
	} {
		if *f.dst == "" {
			*f.dst = f.def
		}
	}
}

// ValidateGameConfig validates a game configuration for correctness and
// playability. Messages are optional; ApplyDefaults fills the empty ones.
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if !IsValidDimension(config.Dimension) {
		return fmt.Errorf("config validation: dimension must be one of %v, got %d", ValidDimensions, config.Dimension)
	}

	// 16 keeps the 2-tile start from winning immediately in big mode
	if !IsPowerOfTwo(config.WinTile) || config.WinTile < 16 || config.WinTile > MaxTileValue {
		return fmt.Errorf("config validation: win_tile must be a power of two between 16 and %d, got %d", MaxTileValue, config.WinTile)
	}

	cells := config.Dimension * config.Dimension
	if config.InitialTiles < 1 || config.InitialTiles > cells {
		return fmt.Errorf("config validation: initial_tiles must be between 1 and %d, got %d", cells, config.InitialTiles)
	}

	switch config.SpawnPolicy {
	case SpawnFreeCell, SpawnSingleAttempt:
	default:
		return fmt.Errorf("config validation: unknown spawn_policy %q", config.SpawnPolicy)
	}

	return nil
}

// ParseGameConfig decodes a variant, fills defaults and validates it.
func ParseGameConfig(data []byte) (*GameConfig, error) {
	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	ApplyDefaults(&config)
	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	return ParseGameConfig(data)
}
