package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "LOCATOR_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.mcp_port", typ: kInt, env: "LOCATOR_SERVER_MCP_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.MCPPort = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.MCPPort },
	},
	{
		key: "sources.fbop_base_url", typ: kString, env: "LOCATOR_FBOP_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Sources.FBOPBaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Sources.FBOPBaseURL },
	},
	{
		key: "sources.tdcj_base_url", typ: kString, env: "LOCATOR_TDCJ_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Sources.TDCJBaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Sources.TDCJBaseURL },
	},
	{
		key: "sources.query_timeout", typ: kString, env: "LOCATOR_QUERY_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Sources.QueryTimeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Sources.QueryTimeout },
	},
	{
		key: "storage.data_dir", typ: kString, env: "LOCATOR_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "api.token", typ: kString, env: "LOCATOR_API_TOKEN",
		apply:   func(cfg *Config, v any) { cfg.API.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Token },
	},
	{
		key: "log.level", typ: kString, env: "LOCATOR_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
