// Package config loads and validates engine configuration from YAML.
//
// Config files may reference environment variables with ${VAR} syntax;
// they are expanded before parsing. The bearer token for the realtime
// feed and the catalog API is expected to arrive this way.
package config
