// Package config defines the configuration structure for the asset agent.
//
// Defaults come from struct tags (creasty/defaults). Load layers a config file,
// ASSET_AGENT_* environment variables and command line flags on top, through viper.
//
// # Configuration Structure
//
//	Configuration
//	├── Server         - HTTP lookup server
//	├── Agent          - storage and worker settings
//	├── Bus            - NATS connection and subjects
//	├── LogFormat      - "console" or "json"
//	└── LogLevel       - zap level name
//
// # Server Configuration
//
//	┌──────────────────┬─────────┬────────────────────────────────────────┐
//	│ Field            │ Default │ Description                            │
//	├──────────────────┼─────────┼────────────────────────────────────────┤
//	│ ServerMode       │ "dev"   │ "prod" puts gin in release mode        │
//	│ HTTPPort         │ 8000    │ HTTP server listen port                │
//	└──────────────────┴─────────┴────────────────────────────────────────┘
//
// # Agent Configuration
//
//	┌──────────────────┬─────────┬────────────────────────────────────────┐
//	│ Field            │ Default │ Description                            │
//	├──────────────────┼─────────┼────────────────────────────────────────┤
//	│ DataFolder       │ ""      │ Folder of assets.duckdb, "" = memory   │
//	│ Workers          │ 4       │ Bus message workers                    │
//	│ TestMode         │ false   │ Skip parent lookups on decode          │
//	└──────────────────┴─────────┴────────────────────────────────────────┘
//
// # Bus Configuration
//
//	┌──────────────────┬────────────────────────┬──────────────────────────┐
//	│ Field            │ Default                │ Description              │
//	├──────────────────┼────────────────────────┼──────────────────────────┤
//	│ URL              │ nats://127.0.0.1:4222  │ NATS server              │
//	│ ChangeSubject    │ ASSETS.changes         │ Inbound changes          │
//	│ StreamSubject    │ ASSETS.stream          │ Republished changes      │
//	│ GetIDSubject     │ GET_ID                 │ Name to id lookups       │
//	│ RequestTimeout   │ 5s                     │ Client request timeout   │
//	│ ConnectTimeout   │ 10s                    │ Connection timeout       │
//	└──────────────────┴────────────────────────┴──────────────────────────┘
//
// Environment variables replace dots and dashes with underscores:
// bus.url → ASSET_AGENT_BUS_URL.
package config
