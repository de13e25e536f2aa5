// Package config loads the papyrusini runtime configuration.
//
// Configuration is resolved in three steps, later steps overriding earlier:
//
//  1. Built-in defaults (see Default)
//  2. A TOML or YAML file, chosen by extension
//  3. PAPYRUSINI_* environment variables
//
// Example file:
//
//	data_dir = "~/Games/Skyrim/Data"
//	watch = true
//
//	[log]
//	level = "debug"
//	file = "papyrusini.log"
//
//	[script]
//	timeout = "10s"
//
// Environment variables:
//
//	PAPYRUSINI_DATA_DIR        data_dir
//	PAPYRUSINI_WATCH           watch
//	PAPYRUSINI_LOG_LEVEL       log.level
//	PAPYRUSINI_LOG_FILE        log.file
//	PAPYRUSINI_SCRIPT_TIMEOUT  script.timeout
//
// Path values have $VAR references and a leading ~ expanded.
package config
