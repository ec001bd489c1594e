// Command devtoken mints a bearer token for local development, signed with
// JWT_SECRET from the environment or .env.
//
//	go run ./cmd/devtoken -sub 7d4f6a0e-2b1c-4c3a-9f56-0e8a1b2c3d4e -ttl 24h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/pkordes/eld-planner/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	sub := flag.String("sub", "", "user id (uuid); a random one is used when empty")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	verified := flag.Bool("verified", true, "set the email_verified claim")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "devtoken: JWT_SECRET is not set")
		os.Exit(1)
	}

	userID := uuid.New()
	if *sub != "" {
		id, err := uuid.Parse(*sub)
		if err != nil {
			fmt.Fprintf(os.Stderr, "devtoken: -sub: %v\n", err)
			os.Exit(2)
		}
		userID = id
	}

	token, err := middleware.IssueToken([]byte(secret), userID, *verified, time.Now(), *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devtoken: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "user %s, expires in %s\n", userID, *ttl)
	fmt.Println(token)
}
