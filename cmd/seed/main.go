// Command seed populates the database with generated users for local
// development. It goes through the regular service layer, so every seeded
// account gets a real bcrypt hash and passes the same validation as an API
// registration.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"usersvc/internal/auth"
	"usersvc/internal/config"
	"usersvc/internal/repository/sqlite"
	"usersvc/internal/service"
)

const seedPassword = "Password123"

func main() {
	numUsers := flag.Int("n", 50, "number of users to create")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	userRepo := sqlite.NewUserRepository(db)
	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	users := service.NewUserService(userRepo, hasher, logger)

	created, skipped := 0, 0
	for i := 0; i < *numUsers; i++ {
		suffix := uuid.NewString()[:8]
		username := fmt.Sprintf("user_%s", suffix)
		email := fmt.Sprintf("%s@example.com", username)

		_, err := users.Register(ctx, username, email, seedPassword, fmt.Sprintf("Seed User %d", i+1))
		if err != nil {
			var exists *service.AlreadyExistsError
			if errors.As(err, &exists) {
				logger.Warnf("skipping %s: %s taken", username, exists.Field)
				skipped++
				continue
			}
			logger.Fatalf("create user %s: %v", username, err)
		}
		created++
	}

	logger.Infof("seeding complete: %d created, %d skipped", created, skipped)
}
