// Package config loads and merges prreview configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (PRREVIEW_ENDPOINT, PRREVIEW_MODEL, OLLAMA_HOST, etc.)
//  3. Config file ($XDG_CONFIG_HOME/prreview/config.json)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged and validated [Config], [Save] to write the
// config file, and [SetField] to update a single key.
package config
