// Package config loads the ledsignal daemon configuration.
//
// Configuration is a YAML document decoded over Default(). Durations use
// Go syntax ("500ms", "2s"). Unknown keys are rejected. The analysis API
// key may be left out of the file and supplied through the environment
// variable named by analysis.api_key_env (GEMINI_API_KEY by default).
//
// Example:
//
//	serial:
//	  port: /dev/ttyACM0
//	  baud_rate: 9600
//	session:
//	  settle_delay: 500ms
//	  post_write_delay: 150ms
//	reconcile:
//	  attempts: 3
//	http:
//	  addr: ":8080"
//	discovery:
//	  enabled: true
package config
