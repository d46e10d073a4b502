package main

import (
	"path/filepath"

	"github.com/adrg/xdg"
	"go-simpler.org/env"
)

// Config is read from the environment. Slice values are comma-separated.
type Config struct {
	AppName         string   `env:"GOSSIP_APP_NAME" default:"gossip"`
	DataDir         string   `env:"GOSSIP_DATA_DIR" usage:"storage location for the seen-on tracker and attempt guard"`
	RelayListRelays []string `env:"GOSSIP_RELAY_LIST_RELAYS" usage:"relays to query for kind:10002 events"`
	FallbackRelays  []string `env:"GOSSIP_FALLBACK_RELAYS" usage:"write relays used when a user has none declared"`
	CacheRelays     []string `env:"GOSSIP_CACHE_RELAYS" usage:"the acting user's own local-network relays"`
}

func loadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Load(cfg, &env.Options{SliceSep: ","}); err != nil {
		return nil, err
	}
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(xdg.DataHome, cfg.AppName)
	}
	return cfg, nil
}
