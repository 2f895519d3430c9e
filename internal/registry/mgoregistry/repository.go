package mgoregistry

import (
	"github.com/denismitr/cropper/internal/media"
	"github.com/denismitr/cropper/internal/registry"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoRegistry) getCrops(ctx mongo.SessionContext, cropFilter media.CropFilter) ([]cropRecord, int64, error) {
	var records []cropRecord

	filter := bson.M{}
	if cropFilter.Status != "" {
		filter["status"] = string(cropFilter.Status)
	}

	opts := options.Find()
	opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	opts.SetSkip(int64(cropFilter.Offset()))
	opts.SetLimit(int64(cropFilter.Limit()))

	cursor, err := r.crops.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, errors.Wrapf(registry.ErrRegistryReadFailed, "mongodb could not find crops by filter %v: %v", filter, err)
	}

	if err := cursor.All(ctx, &records); err != nil {
		return nil, 0, errors.Wrapf(registry.ErrRegistryReadFailed, "mongodb could not decode crops: %v", err)
	}

	total, err := r.crops.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, errors.Wrapf(registry.ErrRegistryReadFailed, "mongodb could not count crops: %v", err)
	}

	return records, total, nil
}

func (r *MongoRegistry) getCropByID(ctx mongo.SessionContext, ID primitive.ObjectID) (*cropRecord, error) {
	var record cropRecord
	if err := r.crops.FindOne(ctx, bson.M{"_id": ID}).Decode(&record); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.Wrapf(registry.ErrEntityNotFound, "crop with ID [%s] not found", ID.Hex())
		}

		return nil, errors.Wrapf(registry.ErrRegistryReadFailed, "mongodb could not get crop with id %s: %v", ID.Hex(), err)
	}

	return &record, nil
}

func (r *MongoRegistry) createCrop(ctx mongo.SessionContext, cr *cropRecord) error {
	result, err := r.crops.InsertOne(ctx, cr)
	if err != nil || result == nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Wrapf(registry.ErrEntityAlreadyExists, "crop with ID [%s] already exists", cr.ID.Hex())
		}

		return errors.Wrapf(registry.ErrRegistryWriteFailed, "could not insert crop into MongoDB collection %v", err)
	}

	return nil
}

func (r *MongoRegistry) replaceCrop(ctx mongo.SessionContext, cr *cropRecord) error {
	result, err := r.crops.ReplaceOne(ctx, bson.M{"_id": cr.ID}, cr)
	if err != nil {
		return errors.Wrapf(registry.ErrRegistryWriteFailed, "could not update crop [%s]: %v", cr.ID.Hex(), err)
	}

	if result.MatchedCount == 0 {
		return errors.Wrapf(registry.ErrEntityNotFound, "crop with ID [%s] not found", cr.ID.Hex())
	}

	return nil
}

func (r *MongoRegistry) removeCrop(ctx mongo.SessionContext, ID primitive.ObjectID) error {
	result, err := r.crops.DeleteOne(ctx, bson.M{"_id": ID})
	if err != nil {
		return errors.Wrapf(registry.ErrRegistryWriteFailed, "could not remove crop [%s]: %v", ID.Hex(), err)
	}

	if result.DeletedCount == 0 {
		return errors.Wrapf(registry.ErrEntityNotFound, "crop with ID [%s] not found", ID.Hex())
	}

	return nil
}
