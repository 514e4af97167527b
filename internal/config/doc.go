// Package config provides the configuration system for nbsense.
//
// Configuration is built in three layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← NBSENSE_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← nbsense.toml or nbsense.yaml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │
//	└─────────────────────────────┘
//
// The file format is chosen by extension: .toml is read with go-toml,
// .yaml and .yml with yaml.v3. A missing file is not an error.
//
// # Basic Usage
//
//	cfg, err := config.Load("nbsense.toml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Notebook.Language)
//
// # Live Reload
//
// Watcher reloads the file through fsnotify and hands every successfully
// validated result to a callback:
//
//	w, err := config.NewWatcher("nbsense.toml")
//	go w.Run(ctx, func(cfg config.Config) { ... })
package config
