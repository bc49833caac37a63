// escrow-token signs a bearer token for local testing against a service that
// shares the same JWT_SECRET.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/auth"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

type options struct {
	Subject string        `short:"s" long:"sub" required:"true" description:"Account id"`
	Role    string        `short:"r" long:"role" default:"user" description:"user, dispute_authority or treasury"`
	TTL     time.Duration `long:"ttl" default:"1h" description:"Token lifetime"`
}

func main() {
	_ = godotenv.Load()

	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatalf("JWT_SECRET is required")
	}
	r, err := domain.ParseRole(opts.Role)
	if err != nil {
		log.Fatalf("%v", err)
	}
	token, err := auth.NewVerifier(secret).Issue(domain.Caller{ID: opts.Subject, Role: r}, opts.TTL)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(token)
}
