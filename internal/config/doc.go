// Package config loads the engine configuration from HCL files.
//
// Every block is optional; a missing file list yields Default(). String
// attributes may reference process environment variables through the env
// object, e.g. `headers = { Authorization = env.FN_TOKEN }`.
//
//	engine {
//	  max_concurrent_branches = 1000
//	  max_loop_iterations     = 100000
//	}
//
//	invoker "http" {
//	  timeout = "30s"
//	  headers = { Authorization = env.FN_TOKEN }
//	}
//
//	invoker "socketio" {
//	  url          = "ws://gateway:3000/socket.io/"
//	  namespace    = "/"
//	  invoke_event = "invoke"
//	  result_event = "result"
//	}
//
//	retry {
//	  max_retries = 2
//	  base_delay  = "200ms"
//	  max_delay   = "5s"
//	  jitter      = true
//	}
//
//	resource "loop.work" {
//	  id     = "https://fn.example/work"
//	  memory = 256
//	}
//
//	log_sink "sqlite" { path = "invocations.db" }
//	log_sink "slog" {}
package config
