// Command devtoken prints a signed access token for local development.
// It reads the same configuration as the server, so the token validates
// against a server started from the same environment.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/config"
	"github.com/phrazzld/scry-study/internal/service/auth"
	"github.com/spf13/pflag"
)

func main() {
	var (
		configFile string
		learner    string
	)
	flags := pflag.NewFlagSet("devtoken", pflag.ExitOnError)
	flags.StringVar(&configFile, "config", "", "path to a YAML config file")
	flags.StringVar(&learner, "learner", "", "learner ID to embed (random when empty)")
	_ = flags.Parse(os.Args[1:])

	learnerID := uuid.New()
	if learner != "" {
		id, err := uuid.Parse(learner)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid learner ID %q: %v\n", learner, err)
			os.Exit(2)
		}
		learnerID = id
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{ConfigFile: configFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize JWT service: %v\n", err)
		os.Exit(1)
	}

	token, err := jwtService.GenerateToken(context.Background(), learnerID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("learner: %s\ntoken:   %s\n", learnerID, token)
}
