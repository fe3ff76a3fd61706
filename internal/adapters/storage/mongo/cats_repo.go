package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/twpayne/go-geom"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cats-graphql/internal/domain/cats"
)

const CatsCollection = "cats"

type pointDoc struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type catDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"cat_name"`
	Weight    float64            `bson:"weight"`
	Birthdate time.Time          `bson:"birthdate"`
	Filename  string             `bson:"filename"`
	Location  pointDoc           `bson:"location"`
	Owner     string             `bson:"owner"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type CatsRepo struct {
	coll *mongo.Collection
}

func NewCatsRepo(db *mongo.Database) *CatsRepo {
	return &CatsRepo{coll: db.Collection(CatsCollection)}
}

// EnsureIndexes crea el índice 2dsphere sobre location y el de owner.
func (r *CatsRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "owner", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo: ensure indexes: %w", err)
	}
	return nil
}

func (r *CatsRepo) Create(ctx context.Context, c cats.Cat) (cats.Cat, error) {
	d := toDoc(c)
	d.ID = primitive.NewObjectID()

	res, err := r.coll.InsertOne(ctx, d)
	if err != nil {
		return cats.Cat{}, err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return cats.Cat{}, fmt.Errorf("mongo: unexpected inserted id %T", res.InsertedID)
	}
	d.ID = oid
	return fromDoc(d), nil
}

func (r *CatsRepo) GetByID(ctx context.Context, id string) (cats.Cat, error) {
	oid, ok := parseID(id)
	if !ok {
		return cats.Cat{}, cats.ErrNotFound
	}

	var d catDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return cats.Cat{}, notFound(err)
	}
	return fromDoc(d), nil
}

func (r *CatsRepo) List(ctx context.Context) ([]cats.Cat, error) {
	return r.find(ctx, bson.M{})
}

func (r *CatsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]cats.Cat, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, nil
	}
	return r.find(ctx, bson.M{"owner": ownerUserID})
}

func (r *CatsRepo) ListWithin(ctx context.Context, area *geom.Polygon) ([]cats.Cat, error) {
	filter, err := withinFilter(area)
	if err != nil {
		return nil, err
	}
	return r.find(ctx, filter)
}

func (r *CatsRepo) Update(ctx context.Context, id string, p cats.Patch) (cats.Cat, error) {
	oid, ok := parseID(id)
	if !ok {
		return cats.Cat{}, cats.ErrNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var d catDoc
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, updateDoc(p), opts).Decode(&d)
	if err != nil {
		return cats.Cat{}, notFound(err)
	}
	return fromDoc(d), nil
}

func (r *CatsRepo) Delete(ctx context.Context, id string) (cats.Cat, error) {
	oid, ok := parseID(id)
	if !ok {
		return cats.Cat{}, cats.ErrNotFound
	}

	var d catDoc
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return cats.Cat{}, notFound(err)
	}
	return fromDoc(d), nil
}

func (r *CatsRepo) find(ctx context.Context, filter any) ([]cats.Cat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []catDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]cats.Cat, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDoc(d))
	}
	return out, nil
}

// withinFilter arma {location: {$geoWithin: {$box: [[minLng, minLat], [maxLng, maxLat]]}}}.
// $box usa geometría plana y el borde cuenta como dentro.
func withinFilter(area *geom.Polygon) (bson.M, error) {
	if area == nil || area.NumLinearRings() == 0 {
		return nil, cats.ErrInvalidBounds
	}

	b := area.Bounds()
	return bson.M{
		"location": bson.M{
			"$geoWithin": bson.M{
				"$box": bson.A{
					bson.A{b.Min(0), b.Min(1)},
					bson.A{b.Max(0), b.Max(1)},
				},
			},
		},
	}, nil
}

func updateDoc(p cats.Patch) bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["cat_name"] = *p.Name
	}
	if p.Weight != nil {
		set["weight"] = *p.Weight
	}
	if p.Birthdate != nil {
		set["birthdate"] = *p.Birthdate
	}
	if p.Filename != nil {
		set["filename"] = *p.Filename
	}
	if p.Location != nil {
		set["location"] = pointDoc{Type: p.Location.Type, Coordinates: p.Location.Coordinates}
	}
	if !p.UpdatedAt.IsZero() {
		set["updated_at"] = p.UpdatedAt
	}
	return bson.M{"$set": set}
}

func parseID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return cats.ErrNotFound
	}
	return err
}

func toDoc(c cats.Cat) catDoc {
	return catDoc{
		Name:      c.Name,
		Weight:    c.Weight,
		Birthdate: c.Birthdate.UTC(),
		Filename:  c.Filename,
		Location:  pointDoc{Type: c.Location.Type, Coordinates: c.Location.Coordinates},
		Owner:     c.Owner,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
}

func fromDoc(d catDoc) cats.Cat {
	return cats.Cat{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Weight:    d.Weight,
		Birthdate: d.Birthdate,
		Filename:  d.Filename,
		Location:  cats.Point{Type: d.Location.Type, Coordinates: d.Location.Coordinates},
		Owner:     d.Owner,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
