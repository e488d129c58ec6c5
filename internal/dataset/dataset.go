package dataset

import (
	"iter"
	"slices"
	"time"

	"superstore-dashboard/internal/models"
)

// Dataset is the immutable collection of records loaded for a process.
// The zero value and a nil *Dataset are both empty.
type Dataset struct {
	records  []models.Record
	source   string
	loadedAt time.Time
}

func New(source string, records []models.Record) *Dataset {
	return &Dataset{
		records:  slices.Clone(records),
		source:   source,
		loadedAt: time.Now(),
	}
}

func Empty() *Dataset {
	return &Dataset{}
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// All yields records in load order.
func (d *Dataset) All() iter.Seq2[int, models.Record] {
	return func(yield func(int, models.Record) bool) {
		if d == nil {
			return
		}
		for i, r := range d.records {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Records returns a copy of every record.
func (d *Dataset) Records() []models.Record {
	if d == nil {
		return nil
	}
	return slices.Clone(d.records)
}

func (d *Dataset) Source() string {
	if d == nil {
		return ""
	}
	return d.source
}

func (d *Dataset) LoadedAt() time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.loadedAt
}
