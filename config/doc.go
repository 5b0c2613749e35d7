// Package config loads the agent configuration from a YAML file and APM_*
// environment variables and hands each package its section through fx.
//
// Precedence, lowest first: Default, the file, the environment. A minimal
// file:
//
//	service_name: checkout
//	app_env: production
//	tracer:
//	  capture_body: errors
//	  url_groups: ["/users/*"]
//	reporters:
//	  otel: true
package config
