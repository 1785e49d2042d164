package config

import (
	"flag"
	"fmt"
	"io"
)

// parseFlags overlays command-line flags.
//
//	-c, -config string   JSON config file (read by parseJSON)
//	-p int               listen port
//	-b string            store backend: memory, redis or postgres
//	-r string            redis address
//	-d string            postgres DSN
//	-s string            secret
//	-root string         directory holding dist/, src/ and styled-system/
func parseFlags(c *Config, args []string) error {
	fs := flag.NewFlagSet("linkage", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var ignored string
	fs.StringVar(&ignored, "c", "", "config file")
	fs.StringVar(&ignored, "config", "", "config file")

	fs.IntVar(&c.Port, "p", c.Port, "listen port")
	fs.StringVar(&c.StoreBackend, "b", c.StoreBackend, "store backend")
	fs.StringVar(&c.RedisAddr, "r", c.RedisAddr, "redis address")
	fs.StringVar(&c.DatabaseDSN, "d", c.DatabaseDSN, "postgres DSN")
	fs.StringVar(&c.Secret, "s", c.Secret, "secret")
	fs.StringVar(&c.Root, "root", c.Root, "asset root")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	return nil
}
