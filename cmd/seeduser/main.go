package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"stock-service/internal/config"
	"stock-service/internal/models"
	"stock-service/internal/repository"
	"stock-service/internal/services"
)

func main() {
	username := flag.String("username", "", "Required: account username")
	password := flag.String("password", "", "Account password (falls back to SEED_PASSWORD)")
	role := flag.String("role", string(models.RoleAdmin), "Role: admin, staff_gudang or manajer")
	fullName := flag.String("name", "", "Display name")
	flag.Parse()

	_ = godotenv.Load()

	if strings.TrimSpace(*username) == "" {
		fmt.Fprintln(os.Stderr, "--username is required")
		os.Exit(1)
	}
	if *password == "" {
		*password = os.Getenv("SEED_PASSWORD")
	}
	if !models.Role(*role).Valid() {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(1)
	}

	hash, err := services.HashPassword(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid password: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	db, err := config.InitDB(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database: %v\n", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		fmt.Fprintf(os.Stderr, "migrate users: %v\n", err)
		os.Exit(1)
	}
	logger := logrus.New()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user := &models.User{
		Username:     strings.TrimSpace(*username),
		FullName:     strings.TrimSpace(*fullName),
		PasswordHash: hash,
		Role:         models.Role(*role),
		Active:       true,
	}
	created, err := repository.NewUserRepository(db).Upsert(ctx, user)
	if err != nil {
		logger.WithError(err).Fatal("Failed to save user")
	}

	verb := "updated"
	if created {
		verb = "created"
	}
	logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
	}).Infof("User %s", verb)
}
