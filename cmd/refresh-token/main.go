package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/ramp-bills/internal/config"
	"github.com/dvloznov/ramp-bills/internal/logger"
	"github.com/dvloznov/ramp-bills/internal/ramp"
)

func main() {
	log := logger.New()

	var (
		tokenFile string
		envFile   string
		tokenURL  string
		timeout   time.Duration
	)

	flag.StringVar(&tokenFile, "token-file", ".env_access_ramp", "Credential store the token is written to")
	flag.StringVar(&envFile, "env-file", ".env", "Env file holding RAMP_CLIENT_ID and RAMP_CLIENT_SECRET")
	flag.StringVar(&tokenURL, "token-url", "", "Token endpoint (default RAMP_TOKEN_URL or the Ramp production endpoint)")
	flag.DurationVar(&timeout, "timeout", time.Minute, "Overall timeout")
	flag.Parse()

	store := config.NewEnvFile(tokenFile)

	storeValues, err := store.Source()
	if err != nil {
		log.Fatal().Err(err).Str("file", tokenFile).Msg("Reading token file failed")
	}
	envValues, err := config.NewEnvFile(envFile).Source()
	if err != nil {
		log.Fatal().Err(err).Str("file", envFile).Msg("Reading env file failed")
	}
	src := config.Layered{config.OSEnv{}, storeValues, envValues}

	log = logger.WithLevel(log, config.Get(src, config.KeyLogLevel, "info"))
	log, _ = logger.ForRun(log, "refresh-token")

	if err := config.Require(src, config.KeyClientID, config.KeyClientSecret); err != nil {
		log.Fatal().Err(err).Msg("Missing Ramp client credentials")
	}

	provider := ramp.NewTokenProvider(
		config.Get(src, config.KeyClientID, ""),
		config.Get(src, config.KeyClientSecret, ""),
	)
	if tokenURL == "" {
		tokenURL = config.Get(src, config.KeyTokenURL, config.DefaultTokenURL)
	}
	provider.TokenURL = tokenURL

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	if _, err := provider.Refresh(ctx, store); err != nil {
		log.Fatal().Err(err).Msg("Token refresh failed")
	}

	fmt.Printf("Wrote %s to %s\n", ramp.TokenKey, tokenFile)
}
