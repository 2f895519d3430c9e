package media

import "time"

type Status string

const (
	Pending   Status = "pending"
	Completed Status = "completed"
	Failed    Status = "failed"
)

// Crop is the persisted record of a finished crop session.
type Crop struct {
	ID          ID          `json:"id"`
	Source      string      `json:"source"`
	Destination string      `json:"destination"`
	Format      Format      `json:"format"`
	Quality     int         `json:"quality"`
	OffsetX     int         `json:"offsetX"`
	OffsetY     int         `json:"offsetY"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	AspectRatio float64     `json:"aspectRatio"`
	Angle       float64     `json:"angle"`
	Scale       float64     `json:"scale"`
	Adjustments Adjustments `json:"adjustments"`
	Size        int64       `json:"size"`
	Status      Status      `json:"status"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

const DefaultPerPage = 25

type Pagination struct {
	Page    uint
	PerPage uint
}

func (p Pagination) Limit() uint {
	if p.PerPage == 0 {
		return DefaultPerPage
	}

	return p.PerPage
}

func (p Pagination) Offset() uint {
	if p.Page < 2 {
		return 0
	}

	return (p.Page - 1) * p.Limit()
}

type CropFilter struct {
	Status Status
	Pagination
}

type Meta struct {
	Total   uint `json:"total"`
	Page    uint `json:"page"`
	PerPage uint `json:"perPage"`
}

type CropCollection struct {
	Crops []Crop `json:"data"`
	Meta  Meta   `json:"meta"`
}
