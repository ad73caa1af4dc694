// Package mongo provides MongoDB-backed repositories for the property listings API.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/komunitas-inovasi/komunitas/internal/core"
	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
	apperrors "github.com/komunitas-inovasi/komunitas/internal/errors"
)

// PropertiesCollection is the collection holding property listings.
const PropertiesCollection = "properties"

var _ core.PropertyRepository = (*PropertyRepo)(nil)

type propertyDoc struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Name        string        `bson:"name"`
	Type        string        `bson:"type"`
	Price       float64       `bson:"price"`
	Address     string        `bson:"address"`
	Bedrooms    int           `bson:"bedrooms"`
	Bathrooms   int           `bson:"bathrooms"`
	Description string        `bson:"description"`
	Photo       *string       `bson:"photo"`
}

func (d propertyDoc) toModel() *model.Property {
	return &model.Property{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Type:        d.Type,
		Price:       d.Price,
		Address:     d.Address,
		Bedrooms:    d.Bedrooms,
		Bathrooms:   d.Bathrooms,
		Description: d.Description,
		Photo:       d.Photo,
	}
}

// PropertyRepo stores property listings in MongoDB.
type PropertyRepo struct {
	coll *mongo.Collection
}

// NewPropertyRepo creates a repository over db's properties collection.
func NewPropertyRepo(db *mongo.Database) *PropertyRepo {
	return &PropertyRepo{coll: db.Collection(PropertiesCollection)}
}

// Create inserts a new listing.
func (r *PropertyRepo) Create(ctx context.Context, req model.CreatePropertyRequest) (*model.Property, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	doc := propertyDoc{
		Name:        req.Name,
		Type:        req.Type,
		Price:       req.Price,
		Address:     req.Address,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Description: req.Description,
		Photo:       req.Photo,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert property: %w", err)
	}
	id, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert property: unexpected id type %T", res.InsertedID)
	}
	doc.ID = id
	return doc.toModel(), nil
}

// List returns all listings in insertion order.
func (r *PropertyRepo) List(ctx context.Context) ([]*model.Property, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find properties: %w", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var docs []propertyDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}

	out := make([]*model.Property, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

// GetByID returns a listing. Unknown or malformed ids are reported as not found.
func (r *PropertyRepo) GetByID(ctx context.Context, id string) (*model.Property, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.NotFoundf("property %q not found", id)
	}

	var doc propertyDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("property %q not found", id)
		}
		return nil, fmt.Errorf("find property: %w", err)
	}
	return doc.toModel(), nil
}

// Update applies the non-nil fields of req and returns the updated listing.
func (r *PropertyRepo) Update(ctx context.Context, id string, req model.UpdatePropertyRequest) (*model.Property, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.NotFoundf("property %q not found", id)
	}

	set := bson.D{}
	add := func(key string, present bool, value any) {
		if present {
			set = append(set, bson.E{Key: key, Value: value})
		}
	}
	add("name", req.Name != nil, deref(req.Name))
	add("type", req.Type != nil, deref(req.Type))
	add("price", req.Price != nil, deref(req.Price))
	add("address", req.Address != nil, deref(req.Address))
	add("bedrooms", req.Bedrooms != nil, deref(req.Bedrooms))
	add("bathrooms", req.Bathrooms != nil, deref(req.Bathrooms))
	add("description", req.Description != nil, deref(req.Description))
	add("photo", req.Photo != nil, deref(req.Photo))

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc propertyDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: set}}, opts).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("property %q not found", id)
		}
		return nil, fmt.Errorf("update property: %w", err)
	}
	return doc.toModel(), nil
}

// Delete removes a listing and reports whether it existed.
func (r *PropertyRepo) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return false, fmt.Errorf("delete property: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
