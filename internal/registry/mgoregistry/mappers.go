package mgoregistry

import (
	"fmt"
	"time"

	"github.com/denismitr/cropper/internal/media"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type adjustmentsRecord struct {
	Brightness float64 `bson:"brightness"`
	Contrast   float64 `bson:"contrast"`
	Saturation float64 `bson:"saturation"`
	Sharpness  float64 `bson:"sharpness"`
}

type cropRecord struct {
	ID          primitive.ObjectID `bson:"_id"`
	Source      string             `bson:"source"`
	Destination string             `bson:"destination"`
	Format      string             `bson:"format"`
	Quality     int                `bson:"quality"`
	OffsetX     int                `bson:"offsetX"`
	OffsetY     int                `bson:"offsetY"`
	Width       int                `bson:"width"`
	Height      int                `bson:"height"`
	AspectRatio float64            `bson:"aspectRatio"`
	Angle       float64            `bson:"angle"`
	Scale       float64            `bson:"scale"`
	Adjustments adjustmentsRecord  `bson:"adjustments"`
	Size        int64              `bson:"size"`
	Status      string             `bson:"status"`
	Error       string             `bson:"error,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func mapCropToMongoRecord(crop *media.Crop) *cropRecord {
	if crop.ID.None() {
		panic("how can crop ID be empty")
	}

	cropID, err := primitive.ObjectIDFromHex(crop.ID.String())
	if err != nil {
		panic(fmt.Sprintf("invalid crop ID [%s]", crop.ID.String()))
	}

	return &cropRecord{
		ID:          cropID,
		Source:      crop.Source,
		Destination: crop.Destination,
		Format:      string(crop.Format),
		Quality:     crop.Quality,
		OffsetX:     crop.OffsetX,
		OffsetY:     crop.OffsetY,
		Width:       crop.Width,
		Height:      crop.Height,
		AspectRatio: crop.AspectRatio,
		Angle:       crop.Angle,
		Scale:       crop.Scale,
		Adjustments: adjustmentsRecord{
			Brightness: crop.Adjustments.Brightness,
			Contrast:   crop.Adjustments.Contrast,
			Saturation: crop.Adjustments.Saturation,
			Sharpness:  crop.Adjustments.Sharpness,
		},
		Size:      crop.Size,
		Status:    string(crop.Status),
		Error:     crop.Error,
		CreatedAt: crop.CreatedAt,
	}
}

func mapMongoRecordToCrop(cr *cropRecord) *media.Crop {
	return &media.Crop{
		ID:          media.ID(cr.ID.Hex()),
		Source:      cr.Source,
		Destination: cr.Destination,
		Format:      media.Format(cr.Format),
		Quality:     cr.Quality,
		OffsetX:     cr.OffsetX,
		OffsetY:     cr.OffsetY,
		Width:       cr.Width,
		Height:      cr.Height,
		AspectRatio: cr.AspectRatio,
		Angle:       cr.Angle,
		Scale:       cr.Scale,
		Adjustments: media.Adjustments{
			Brightness: cr.Adjustments.Brightness,
			Contrast:   cr.Adjustments.Contrast,
			Saturation: cr.Adjustments.Saturation,
			Sharpness:  cr.Adjustments.Sharpness,
		},
		Size:      cr.Size,
		Status:    media.Status(cr.Status),
		Error:     cr.Error,
		CreatedAt: cr.CreatedAt,
	}
}
