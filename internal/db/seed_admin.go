package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jobhubhq/jobhub/internal/config"
	"github.com/jobhubhq/jobhub/internal/domain/user"
	"github.com/jobhubhq/jobhub/internal/security"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// EnsureAdminUser seeds the ops account that gates /admin. Registration only
// accepts student|recruiter, so this is the single way an admin exists.
func EnsureAdminUser(ctx context.Context, database *mongo.Database, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	coll := database.Collection("users")

	err := coll.FindOne(ctx, bson.M{"email": cfg.AdminEmail}).Err()

	if err == nil {
		return nil
	}

	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		FullName:     cfg.AdminName,
		Role:         user.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = coll.InsertOne(ctx, u)

	if mongo.IsDuplicateKeyError(err) {
		// lost a race with another instance seeding the same account
		return nil
	}

	return err
}
