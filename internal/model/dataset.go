package model

import "strconv"

// DatasetMeta is the mutable metadata of a dataset, stored as JSON under
// v1:datasets:<dataset>:meta.
type DatasetMeta struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Topic       string `json:"topic"`
}

// DefaultDatasetMeta is used when no meta record exists or it fails to parse.
func DefaultDatasetMeta(id string) DatasetMeta {
	return DatasetMeta{Label: id}
}

type DatasetInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type UserDataset struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Topic string `json:"topic"`
}

// DatasetSummary is one row of /user_datasets_summary.
type DatasetSummary struct {
	ID           string   `json:"id"`
	Submitted    bool     `json:"submitted"`
	Accuracy     *float64 `json:"accuracy"`
	HasResponses bool     `json:"hasResponses"`
}

// SubmittedMarker is the marker value for paired datasets that were finalized
// before any comparison ran.
const SubmittedMarker = "submitted"

// ParseAccuracyMarker interprets a submission marker value: a numeric string
// yields the accuracy, anything else (e.g. "submitted") yields nil.
func ParseAccuracyMarker(raw string) *float64 {
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &n
}
