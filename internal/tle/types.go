package tle

import "time"

// ElementSet is a single satellite's two-line element set together with the
// fields the rest of the system needs without re-decoding the raw lines.
type ElementSet struct {
	NORADID int
	Name    string // optional free-text name line, "" when absent
	Epoch   time.Time
	Line1   string
	Line2   string
}

// EpochRange is the minimum and maximum element epochs in a dataset.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// Dataset is a complete element-set collection from one source.
// Immutable after construction; shared read-only across the process.
type Dataset struct {
	Source     string
	FetchedAt  time.Time
	EpochRange EpochRange
	Satellites []ElementSet
}

// NewDataset builds a Dataset from parsed element sets, computing the epoch range.
func NewDataset(source string, fetchedAt time.Time, sets []ElementSet) *Dataset {
	ds := &Dataset{
		Source:     source,
		FetchedAt:  fetchedAt,
		Satellites: sets,
	}
	if len(sets) > 0 {
		ds.EpochRange = EpochRange{Min: sets[0].Epoch, Max: sets[0].Epoch}
		for _, s := range sets[1:] {
			if s.Epoch.Before(ds.EpochRange.Min) {
				ds.EpochRange.Min = s.Epoch
			}
			if s.Epoch.After(ds.EpochRange.Max) {
				ds.EpochRange.Max = s.Epoch
			}
		}
	}
	return ds
}

// Find returns the element set with the given NORAD ID, or false.
func (ds *Dataset) Find(noradID int) (ElementSet, bool) {
	for _, s := range ds.Satellites {
		if s.NORADID == noradID {
			return s, true
		}
	}
	return ElementSet{}, false
}
