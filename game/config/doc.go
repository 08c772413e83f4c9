// Package config manages race map presets.
//
// Presets come from two places: the built-in easy, normal and hard maps
// compiled into the race engine, and YAML files in a config directory. A
// file named <preset>.yaml (or .yml) defines or overrides the preset of that
// name. Loaded files are validated and cached.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg, err := manager.Preset("hard")
//	presets, err := manager.List()
//
// Manager satisfies race.Presets, so it can be handed straight to the race
// engine factory.
package config
