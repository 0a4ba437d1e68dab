// Package config loads the dcrpc command's configuration.
//
// Sources, later ones winning: built-in defaults, the YAML config file,
// a .env file in the working directory, and the process environment
// (DCRPC_BINARY, DC_ACCOUNTS_PATH, DCRPC_LOG_LEVEL). Paths are expanded
// and the result is validated before use.
package config
