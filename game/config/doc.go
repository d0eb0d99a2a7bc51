// Package config loads game variants from a directory of JSON files.
//
// Each file describes one variant: board dimension, big mode, win tile,
// spawn policy, initial tile count and the player-facing messages. The file
// name without .json is the variant id used when creating a session.
// Missing optional fields are filled with the engine defaults before
// validation.
//
//	manager, err := config.NewManager("configs")
//	big, err := manager.LoadConfig("big")
//	configs, err := manager.ListConfigs()
//
// The default variant is classic.json when present, otherwise the first
// valid file, otherwise the built-in 4x4 classic variant.
package config
