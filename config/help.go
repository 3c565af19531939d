package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `
Delivery rider client.

Usage:
  rider     -config-path <file>   run the rider agent
  devserver -config-path <file>   run the development backend

Configuration is read from the yaml file, then overridden by environment
variables (BACKEND_BASE_URL, TOKEN_STORE_PATH, FEED_URL, ...).
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}

// PrintConfig dumps the effective configuration. Secrets are masked.
func PrintConfig(cfg *Config) {
	fmt.Printf("log level:      %s\n", cfg.LogLevel)
	fmt.Printf("backend:        %s (timeout %s, token leeway %s)\n",
		cfg.Backend.BaseURL, cfg.Backend.Timeout, cfg.Backend.TokenLeeway)
	fmt.Printf("token store:    %s (secret %s)\n", cfg.TokenStore.Path, mask(cfg.TokenStore.Secret))
	fmt.Printf("feed:           %s (backoff %s..%s)\n", cfg.Feed.URL, cfg.Feed.MinBackoff, cfg.Feed.MaxBackoff)
	fmt.Printf("debug endpoint: %s\n", cfg.Debug.Addr)
}

func mask(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:2] + "****" + secret[len(secret)-2:]
}
