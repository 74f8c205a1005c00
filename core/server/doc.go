// Package server holds the HTTP server configuration.
//
// The daemon's admin API and the CLI client share this configuration: the
// daemon listens on Address, and the reload/toggle commands reach it through
// URL, authenticating with the same API key.
//
// # Usage
//
// This package is primarily used by the core/config package to embed server settings
// and by cmd to start the listener or build a client.
package server
