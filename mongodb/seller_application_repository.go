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

	authcore "github.com/vetrina-app/authcore"
	"github.com/vetrina-app/authcore/domain"
)

// SellerApplicationRepository implements domain.SellerApplicationRepository
// on MongoDB.
type SellerApplicationRepository struct {
	apps *mongo.Collection
}

// NewSellerApplicationRepository creates the repository and ensures its
// indexes.
func NewSellerApplicationRepository(ctx context.Context, db *mongo.Database) (domain.SellerApplicationRepository, error) {
	repo := &SellerApplicationRepository{
		apps: db.Collection(SellerApplicationsCollection),
	}

	indexModels := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}},
		},
	}
	if _, err := repo.apps.Indexes().CreateMany(ctx, indexModels); err != nil {
		log.Warn().Err(err).Msg("Failed to create seller application indexes")
	}
	return repo, nil
}

// CreateApplication inserts a new application.
func (r *SellerApplicationRepository) CreateApplication(ctx context.Context, app *domain.SellerApplication) error {
	if app.ID == "" {
		app.ID = NewObjectID()
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now().UTC()
	}
	if app.Status == "" {
		app.Status = domain.ApplicationPending
	}

	if _, err := r.apps.InsertOne(ctx, app); err != nil {
		log.Error().Err(err).Str("userID", app.UserID).Msg("Error creating seller application")
		return err
	}
	return nil
}

// GetApplicationByID retrieves an application by ID.
func (r *SellerApplicationRepository) GetApplicationByID(ctx context.Context, id string) (*domain.SellerApplication, error) {
	var app domain.SellerApplication
	err := r.apps.FindOne(ctx, bson.M{"_id": id}).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, authcore.ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

// GetPendingByUserID returns the user's pending application, if any.
func (r *SellerApplicationRepository) GetPendingByUserID(ctx context.Context, userID string) (*domain.SellerApplication, error) {
	filter := bson.M{"user_id": userID, "status": domain.ApplicationPending}

	var app domain.SellerApplication
	err := r.apps.FindOne(ctx, filter).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, authcore.ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

// ListByStatus returns applications in the given state, oldest first.
func (r *SellerApplicationRepository) ListByStatus(ctx context.Context, status domain.ApplicationStatus) ([]*domain.SellerApplication, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.apps.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications by status: %w", err)
	}
	defer cursor.Close(ctx)

	var apps []*domain.SellerApplication
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, fmt.Errorf("failed to decode applications: %w", err)
	}
	return apps, nil
}

// UpdateApplication replaces an application document.
func (r *SellerApplicationRepository) UpdateApplication(ctx context.Context, app *domain.SellerApplication) error {
	result, err := r.apps.ReplaceOne(ctx, bson.M{"_id": app.ID}, app)
	if err != nil {
		log.Error().Err(err).Str("applicationID", app.ID).Msg("Error updating seller application")
		return err
	}
	if result.MatchedCount == 0 {
		return authcore.ErrApplicationNotFound
	}
	return nil
}
