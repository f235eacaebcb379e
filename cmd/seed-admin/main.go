package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	"github.com/noah-isme/school-admin-api/pkg/config"
	"github.com/noah-isme/school-admin-api/pkg/database"
	"github.com/noah-isme/school-admin-api/pkg/logger"
)

func main() {
	account := flag.String("account", "", "admin login email")
	password := flag.String("password", "", "admin password (min 6 characters)")
	flag.Parse()

	email := strings.ToLower(strings.TrimSpace(*account))
	if email == "" || len(*password) < 6 {
		log.Fatal("usage: seed-admin -account admin@school.test -password secret1")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	users := repository.NewUserRepository(db)
	taken, err := users.AccountTaken(ctx, db, email, "")
	if err != nil {
		logr.Fatal("failed to check account", zap.Error(err))
	}
	if taken {
		logr.Info("admin account already exists", zap.String("account", email))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		logr.Fatal("failed to hash password", zap.Error(err))
	}
	admin := &models.User{Account: email, PasswordHash: string(hash), Role: models.RoleAdmin}
	if err := users.Create(ctx, db, admin); err != nil {
		logr.Fatal("failed to create admin", zap.Error(err))
	}
	logr.Info("admin account created", zap.String("account", email), zap.Int64("id", admin.ID))
}
