// Command seed creates or resets an admin account directly against the
// database, without going through the application.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/sportscool/enroll-backend/internal/config"
	"github.com/sportscool/enroll-backend/internal/credentials"
)

func main() {
	username := flag.String("username", "admin", "admin username")
	password := flag.String("password", "", "admin password (required)")
	reset := flag.Bool("reset", false, "overwrite the password if the admin already exists")
	flag.Parse()

	if *password == "" {
		fatalf("missing --password")
	}

	_ = godotenv.Load(".env.local", ".env")
	cfg, err := config.Load()
	if err != nil {
		fatalf("configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	hash, salt, err := credentials.HashPassword(*password)
	if err != nil {
		fatalf("hash password: %v", err)
	}

	var existingID int
	err = db.QueryRowContext(ctx, `SELECT id FROM admin WHERE username = $1`, *username).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		_, err = db.ExecContext(ctx,
			`INSERT INTO admin (username, password_hash, password_salt) VALUES ($1, $2, $3)`,
			*username, hash, salt)
		if err != nil {
			fatalf("insert admin: %v", err)
		}
		log.Printf("admin %q created", *username)
	case err != nil:
		fatalf("lookup admin: %v", err)
	default:
		if !*reset {
			fatalf("admin %q already exists; use --reset to overwrite the password", *username)
		}
		_, err = db.ExecContext(ctx,
			`UPDATE admin SET password_hash = $1, password_salt = $2 WHERE id = $3`,
			hash, salt, existingID)
		if err != nil {
			fatalf("update admin: %v", err)
		}
		log.Printf("admin %q password reset", *username)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
