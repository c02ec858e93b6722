// Package config loads and validates application settings from environment
// variables and optional config files, exposing them as typed structs to the
// rest of the application.
package config
