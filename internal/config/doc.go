// Package config handles configuration loading, parsing, and
// validation from environment variables and an optional config file.
// It provides type-safe access to the settings each component needs
// while keeping configuration details separate from business logic.
package config
