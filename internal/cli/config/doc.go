// Package config defines the sesskeep-cli configuration structure.
//
// Configuration is layered by confloader: defaults, then the YAML file
// (~/.sesskeep/config.yaml unless --config is given), then SESSKEEP_*
// environment variables, then command-line flags.
package config
