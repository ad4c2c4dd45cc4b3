package model

// Question is one prompt in a dataset, stored as JSON under
// v1:datasets:<dataset>:<uid>. Questions are immutable after creation;
// adjudication rephrasing creates a new question instead of mutating.
type Question struct {
	UID        string   `json:"uid"`
	Question   string   `json:"Question"`
	Map        string   `json:"Map,omitempty"`
	Label      string   `json:"Label,omitempty"`
	Complexity string   `json:"Expression Complexity,omitempty"`
	Locations  []string `json:"locations"`

	// Deprecated aliases written by older clients, folded into the
	// canonical fields by Normalize.
	LegacyQID      string `json:"QID,omitempty"`
	LegacyQuestion string `json:"question,omitempty"`
	LegacyMap      string `json:"map,omitempty"`

	// Set when the question was spawned from an adjudication rephrase.
	SourceDataset string `json:"sourceDataset,omitempty"`
	SourceUID     string `json:"sourceUid,omitempty"`
}

// Normalize folds deprecated aliases into their canonical fields. Records
// written before the uid migration may still carry QID/question/map.
func (q *Question) Normalize() {
	if q.UID == "" && q.LegacyQID != "" {
		q.UID = q.LegacyQID
	}
	q.LegacyQID = ""

	if q.Question == "" && q.LegacyQuestion != "" {
		q.Question = q.LegacyQuestion
	}
	q.LegacyQuestion = ""

	if q.Map == "" && q.LegacyMap != "" {
		q.Map = q.LegacyMap
	}
	q.LegacyMap = ""

	if q.Locations == nil {
		q.Locations = []string{}
	}
}
