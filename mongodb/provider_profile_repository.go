package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vetrina-app/authcore/domain"
)

// ErrProfileNotFound is returned when no provider profile matches a lookup.
var ErrProfileNotFound = errors.New("provider profile not found")

// ProviderProfileRepository implements domain.ProviderProfileRepository on
// MongoDB.
type ProviderProfileRepository struct {
	profiles *mongo.Collection
}

// NewProviderProfileRepository creates the repository and ensures its
// indexes.
func NewProviderProfileRepository(ctx context.Context, db *mongo.Database) (domain.ProviderProfileRepository, error) {
	repo := &ProviderProfileRepository{
		profiles: db.Collection(ProviderProfilesCollection),
	}

	indexModels := []mongo.IndexModel{
		{
			// One storefront per account.
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := repo.profiles.Indexes().CreateMany(ctx, indexModels); err != nil {
		log.Warn().Err(err).Msg("Failed to create provider profile indexes")
	}
	return repo, nil
}

// CreateProfile inserts a new storefront profile.
func (r *ProviderProfileRepository) CreateProfile(ctx context.Context, profile *domain.ProviderProfile) error {
	if profile.ID == "" {
		profile.ID = NewObjectID()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	if _, err := r.profiles.InsertOne(ctx, profile); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("provider profile for user %s already exists: %w", profile.UserID, err)
		}
		log.Error().Err(err).Str("userID", profile.UserID).Msg("Error creating provider profile")
		return err
	}
	return nil
}

// GetProfileByID retrieves a profile by its ID.
func (r *ProviderProfileRepository) GetProfileByID(ctx context.Context, id string) (*domain.ProviderProfile, error) {
	var profile domain.ProviderProfile
	err := r.profiles.FindOne(ctx, bson.M{"_id": id}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// GetProfileByUserID retrieves the profile owned by userID.
func (r *ProviderProfileRepository) GetProfileByUserID(ctx context.Context, userID string) (*domain.ProviderProfile, error) {
	var profile domain.ProviderProfile
	err := r.profiles.FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}
