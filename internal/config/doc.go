// Package config provides centralized configuration management for the
// dashboard. Configuration is resolved with precedence env > yaml file
// > built-in defaults; environment variables use the DWATCH prefix
// (for example DWATCH_SERVER_PORT).
package config
