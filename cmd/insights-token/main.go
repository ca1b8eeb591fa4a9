// Command insights-token mints a bearer token for local calls to /api/insights.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"spese-insights/internal/auth"
)

func main() {
	_ = godotenv.Load()

	subject := flag.String("sub", os.Getenv("INSIGHTS_TOKEN_SUBJECT"), "owner id placed in the sub claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		log.Fatalf("set AUTH_JWT_SECRET")
	}
	if *subject == "" {
		log.Fatalf("pass -sub or set INSIGHTS_TOKEN_SUBJECT")
	}

	tok, err := auth.NewVerifier(secret, os.Getenv("AUTH_JWT_ISSUER")).Issue(*subject, *ttl)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Println(tok)
}
