// Package config provides configuration management for attendx.
//
// # Configuration Sources
//
// Values are layered in this order, later sources overriding earlier ones:
//
//  1. Default values (Default)
//  2. YAML file (--config, ATTENDX_CONFIG, attendx.yaml or configs/attendx.yaml)
//  3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern ATTENDX_<SECTION>_<FIELD>:
//
//	ATTENDX_PATHS_INBOX_DIR=inbox
//	ATTENDX_WATCH_INTERVAL=3s
//	ATTENDX_CLASSIFIER_TOLERANCE=40
//	ATTENDX_TRANSITIONS=yellow>red,green>red
//	ATTENDX_DAYS=mån=Monday,tis=Tuesday
//
// Colour palettes are nested lists and can only be set in the YAML file:
//
//	classifier:
//	  palette:
//	    green: ["00CC00", "92D050"]
//	    red: ["FF0000"]
//
// # Validation
//
// The merged configuration is validated with go-playground/validator struct
// tags; failures wrap errors.ErrInvalidConfig.
package config
