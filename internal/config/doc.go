// Package config loads the closing yield tool configuration.
//
// # Configuration Sources
//
// Configuration is assembled in three layers, later layers overriding
// earlier ones:
//
//	1. Default values from Default()
//	2. A YAML file (the -config flag, else config.yaml or configs/config.yaml)
//	3. Environment variables
//
// # Environment Variables
//
// Variables follow the pattern YIELD_<SECTION>_<KEY>:
//
//	YIELD_LOGGING_LEVEL=debug
//	YIELD_ENGINE_MIN_NOMINAL=500000
//	YIELD_ENGINE_CLASS_OVERRIDES=GI25:LINKED,GC30:NOMINAL
//	YIELD_RETRY_INITIAL_DELAY=15m
//
// # Path Management
//
// Paths resolves the data, reports and logs directories against a base
// directory (the executable directory unless configured):
//
//	paths, err := config.ResolvePaths(cfg.Paths)
//	csvPath := paths.ClosingYieldsCSVPath(cfg.Output.CSVPattern, runDate)
//
// Source file names may contain {date} or {iso_date}, expanded per run.
//
// # Validation
//
// Load validates struct constraints with go-playground/validator and checks
// that the threshold and time zone parse.
package config
