// Package config handles configuration loading for botherd.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion and validation.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	bots:
//	  - id: alpha
//	    password: "${ALPHA_PASSWORD}"
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	fleet:
//	  keepalive_interval: "45s"
//	  flush_spacing: "1s"
//	  reconnect_base: "5s"
//	  reconnect_growth: 1.5
//	  reconnect_max: "5m"
//
// # Bot Entries
//
// Each bot entry names one managed connection:
//
//	bots:
//	  - id: alpha
//	    display_name: Alpha
//	    host: mc.example.com
//	    port: 25565
//	    username: alpha
//	    version: "1.20.4"
//	    auto_reconnect: true
//	    auto_start: true
//
// Port defaults to 25565 and display_name to the id.
package config
