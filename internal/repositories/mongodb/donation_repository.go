package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kabeba2027/donations-backend/internal/models"
	"github.com/kabeba2027/donations-backend/internal/repositories"
)

// DonationRepository implements the repositories.DonationArchive
// interface on top of MongoDB.
type DonationRepository struct {
	collection *mongo.Collection
}

// NewDonationRepository creates a new DonationRepository
func NewDonationRepository(db *mongo.Database) repositories.DonationArchive {
	return &DonationRepository{
		collection: db.Collection("donations"),
	}
}

// Save upserts a terminal transaction keyed by its checkout request ID,
// so a duplicate provider callback never produces a second document.
func (r *DonationRepository) Save(ctx context.Context, txn *models.Transaction) error {
	filter := bson.M{"checkoutRequestId": txn.CheckoutRequestID}
	update := bson.M{"$set": txn}
	opts := options.Update().SetUpsert(true)

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// FindByCheckoutID finds an archived donation by checkout request ID
func (r *DonationRepository) FindByCheckoutID(ctx context.Context, checkoutRequestID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.collection.FindOne(ctx, bson.M{"checkoutRequestId": checkoutRequestID}).Decode(&txn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// FindRecent returns archived donations sorted newest first, paginated
func (r *DonationRepository) FindRecent(ctx context.Context, page, limit int) ([]*models.Transaction, error) {
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"createdAt": -1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var donations []*models.Transaction
	if err := cursor.All(ctx, &donations); err != nil {
		return nil, err
	}
	return donations, nil
}

// Count returns the total number of archived donations
func (r *DonationRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
