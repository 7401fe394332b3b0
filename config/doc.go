// Package config loads tilefilter configuration.
//
// It uses Viper to read a YAML config file and environment variables, and
// godotenv to pick up .env files. Environment variables override file values:
// FILTER_COMMAND maps to filter.command, RUN_ON_ERROR to run.on_error.
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("tilefilter", &cfg, config.WithConfigFile(path))
package config
