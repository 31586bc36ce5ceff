// Package config handles configuration loading for salesboard.
//
// # Configuration File
//
// Lookup order used by the salesboard command:
//
//  1. Path from the SALESBOARD_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/salesboard/config.yaml
//  3. ~/.config/salesboard/config.yaml
//
// When no file exists the command falls back to FromEnv, which starts from
// Default and applies environment overrides.
//
// # Example
//
//	server:
//	  http_addr: "127.0.0.1:8501"
//	  shutdown_timeout: "5s"
//
//	database:
//	  driver: "sqlite"              # or "postgres"
//	  path: "data/salesboard.db"
//	  dsn: "${DATABASE_URL}"        # postgres only
//
//	auth:
//	  pbkdf2_iterations: 200000
//	  session_duration: "168h"
//	  sweep_interval: "1h"
//	  restore_latest_session: false
//
//	data:
//	  sales_csv: "data/e_commerce_sales.csv"   # or s3://bucket/key
//	  s3:
//	    region: "eu-west-3"
//	    endpoint: ""                # custom endpoint for MinIO and friends
//	    use_path_style: false
//
//	logging:
//	  level: "info"                 # debug, info, warn, error
//	  format: "text"                # text or json
//
// # Environment Variable Expansion
//
// Values may reference environment variables as ${VAR_NAME}. Unset variables
// expand to the empty string.
//
// # Environment Overrides
//
// After the file is parsed, SALESBOARD_* variables (see the env struct tags,
// for example SALESBOARD_HTTP_ADDR or SALESBOARD_DB_DSN) override individual
// fields. Parsing is done with github.com/caarlos0/env.
//
// # Duration Parsing
//
// Durations use time.ParseDuration syntax ("30s", "15m", "168h").
package config
