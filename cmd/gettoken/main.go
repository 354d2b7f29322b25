package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/karseba/comprelay/internal/config"
	"github.com/karseba/comprelay/internal/platform"
)

// gettoken exchanges identity credentials for an access token via the
// password grant. It is an operator convenience for obtaining a token to pass
// in the Authorization header of /check-competitions requests.
func main() {
	var (
		configFile = flag.String("config", "", "path to relay configuration file")
		envPrefix  = flag.String("env-prefix", "COMPRELAY", "environment variable prefix")
		space      = flag.String("space", "", "space whose client_id to use (defaults to the shared www client)")
		username   = flag.String("username", "", "identity username (overrides configuration)")
		password   = flag.String("password", "", "identity password (overrides configuration)")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(*envPrefix, *configFile)
	cfg, err := loader.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	user := cfg.Identity.Username
	if *username != "" {
		user = *username
	}
	pass := cfg.Identity.Password
	if *password != "" {
		pass = *password
	}
	if user == "" || pass == "" {
		fmt.Fprintln(os.Stderr, "identity username and password are required (flags or configuration)")
		os.Exit(2)
	}

	client := platform.NewHTTPClient(cfg.Upstream.Timeout())
	token, err := platform.FetchAccessToken(ctx, client, cfg.Identity.TokenURL, *space, user, pass)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
