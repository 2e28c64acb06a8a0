// Package config loads, normalizes, and validates loadgate's TOML
// configuration.
//
// Config files are looked up from the --config flag, then
// ~/.config/loadgate/config.toml, then ./loadgate.toml; when none exist the
// repository defaults apply unchanged. Secrets come from the environment
// whenever possible: LOADGATE_DISPATCH_TOKEN or GITHUB_TOKEN for the dispatch
// call, NTFY_TOPIC for notifications, and each publish credential's env name.
package config
