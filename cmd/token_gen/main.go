package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"seaborne/voyagedesk/internal/auth"
	"seaborne/voyagedesk/internal/config"
	"seaborne/voyagedesk/internal/db"
	"seaborne/voyagedesk/internal/db/repositories"
)

// token_gen mints a bearer token for an existing user, for local testing
// and operator scripts.
func main() {
	email := flag.String("email", "", "email of the user to issue a token for")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *email == "" {
		log.Fatalf("-email is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	gormDB, err := db.InitPostgresORM(cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	user, err := repositories.NewUserRepositoryGORM(gormDB).GetUserByEmail(context.Background(), *email)
	if err != nil {
		log.Fatalf("lookup user: %v", err)
	}

	vesselID := ""
	if user.VesselID != nil {
		vesselID = *user.VesselID
	}

	token, err := auth.IssueToken(cfg.JWTSecret, user.ID, user.Role, vesselID, *ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}

	fmt.Println("Bearer token for", user.Email, "("+user.Role.String()+"):")
	fmt.Println(token)
}
