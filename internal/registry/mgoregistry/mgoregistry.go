package mgoregistry

import (
	"context"
	"time"

	"github.com/denismitr/cropper/internal/media"
	"github.com/denismitr/cropper/internal/registry"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

type Config struct {
	DB              string
	CropsCollection string
}

func DefaultConfig(db string) Config {
	return Config{DB: db, CropsCollection: "crops"}
}

type MongoRegistry struct {
	client *mongo.Client
	db     *mongo.Database
	crops  *mongo.Collection
}

var _ registry.Registry = (*MongoRegistry)(nil)

func New(client *mongo.Client, cfg Config) *MongoRegistry {
	r := MongoRegistry{
		client: client,
		db:     client.Database(cfg.DB),
	}

	r.crops = r.db.Collection(cfg.CropsCollection)

	return &r
}

func (r *MongoRegistry) GenerateID() media.ID {
	return media.ID(primitive.NewObjectID().Hex())
}

func (r *MongoRegistry) Migrate(ctx context.Context) error {
	_, err := r.crops.Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
	)

	if err != nil {
		return errors.Wrap(err, "could not create index on crops collection")
	}

	return nil
}

func (r *MongoRegistry) CreateCrop(ctx context.Context, crop *media.Crop) error {
	return r.transaction(ctx, 3*time.Second, func(sessCtx mongo.SessionContext) error {
		return r.createCrop(sessCtx, mapCropToMongoRecord(crop))
	})
}

func (r *MongoRegistry) UpdateCrop(ctx context.Context, crop *media.Crop) error {
	if _, err := primitive.ObjectIDFromHex(crop.ID.String()); err != nil {
		return errors.Wrapf(registry.ErrInvalidID, "crop ID [%s]", crop.ID.String())
	}

	return r.transaction(ctx, 3*time.Second, func(sessCtx mongo.SessionContext) error {
		return r.replaceCrop(sessCtx, mapCropToMongoRecord(crop))
	})
}

func (r *MongoRegistry) GetCropByID(ctx context.Context, ID media.ID) (*media.Crop, error) {
	cropID, err := primitive.ObjectIDFromHex(ID.String())
	if err != nil {
		return nil, errors.Wrapf(registry.ErrInvalidID, "crop ID [%s]", ID.String())
	}

	var crop *media.Crop
	txErr := r.transaction(ctx, 2*time.Second, func(sessCtx mongo.SessionContext) error {
		cr, err := r.getCropByID(sessCtx, cropID)
		if err != nil {
			return err
		}

		crop = mapMongoRecordToCrop(cr)

		return nil
	})

	if txErr != nil {
		return nil, txErr
	}

	return crop, nil
}

func (r *MongoRegistry) GetCrops(ctx context.Context, cropFilter media.CropFilter) (*media.CropCollection, error) {
	collection := new(media.CropCollection)

	txErr := r.transaction(ctx, 3*time.Second, func(sessCtx mongo.SessionContext) error {
		records, total, err := r.getCrops(sessCtx, cropFilter)
		if err != nil {
			return err
		}

		collection.Crops = make([]media.Crop, 0, len(records))
		for i := range records {
			collection.Crops = append(collection.Crops, *mapMongoRecordToCrop(&records[i]))
		}

		collection.Meta.Total = uint(total)
		collection.Meta.PerPage = cropFilter.Limit()
		collection.Meta.Page = cropFilter.Page

		return nil
	})

	if txErr != nil {
		return nil, txErr
	}

	return collection, nil
}

func (r *MongoRegistry) RemoveCrop(ctx context.Context, ID media.ID) error {
	cropID, err := primitive.ObjectIDFromHex(ID.String())
	if err != nil {
		return errors.Wrapf(registry.ErrInvalidID, "crop ID [%s]", ID.String())
	}

	return r.transaction(ctx, 2*time.Second, func(sessCtx mongo.SessionContext) error {
		return r.removeCrop(sessCtx, cropID)
	})
}

func (r *MongoRegistry) transaction(ctx context.Context, commitTime time.Duration, f func(sessCtx mongo.SessionContext) error) error {
	wc := writeconcern.New(writeconcern.WMajority())
	rc := readconcern.Snapshot()

	txnOpts := options.Transaction().
		SetWriteConcern(wc).
		SetReadConcern(rc).
		SetMaxCommitTime(&commitTime)

	sess, err := r.client.StartSession()
	if err != nil {
		return errors.Wrapf(registry.ErrCouldNotOpenTx, "mongo db session failed %v", err)
	}

	defer sess.EndSession(ctx)

	_, txErr := sess.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := f(sessCtx); err != nil {
			return nil, err
		}

		return nil, nil
	}, txnOpts)

	return txErr
}
