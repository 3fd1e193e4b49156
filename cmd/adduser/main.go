// cmd/adduser/main.go
// Creates or updates a user in the database, issuing its token.
//
// Usage:
//
//	go run ./cmd/adduser -username alice -password s3cretpass
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/padraicbc/budgetapi/config"
	bundb "github.com/padraicbc/budgetapi/db"
	"github.com/padraicbc/budgetapi/models"
	"github.com/padraicbc/budgetapi/tokens"
)

func main() {
	username := flag.String("username", "", "username (required)")
	password := flag.String("password", "", "plain-text password (required)")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("both -username and -password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("bcrypt:", err)
	}

	cfg := config.Load()
	db := bundb.Setup(cfg)
	defer db.Close()

	ctx := context.Background()

	user := &models.User{
		Username: *username,
		Password: string(hash),
	}

	err = db.NewInsert().Model(user).
		On("CONFLICT (username) DO UPDATE SET password = EXCLUDED.password").
		Returning("id").
		Scan(ctx)
	if err != nil {
		log.Fatal("insert user:", err)
	}

	token, err := tokens.IssueOrGet(ctx, db, user.ID)
	if err != nil {
		log.Fatal("issue token:", err)
	}

	fmt.Printf("user %q saved, token %s\n", *username, token.Key)
}
