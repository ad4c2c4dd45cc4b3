package model

// CampaignMeta tracks a topic campaign's generation cursor and quota, stored
// as JSON under v1:campaigns:<topic>:meta. NumImages is a pointer because a
// null quota (never configured) and a quota of zero (campaign complete) are
// different states.
type CampaignMeta struct {
	CurIndex  int  `json:"curIndex"`
	NumImages *int `json:"numImages"`
}

// GeneratedDataset is the payload returned by the dataset-generator
// collaborator.
type GeneratedDataset struct {
	Meta    DatasetMeta `json:"dataset_meta"`
	Entries []Question  `json:"dataset_entries"`
}

type UserAccuracy struct {
	PID      string   `json:"pid"`
	Accuracy *float64 `json:"accuracy"`
}

// ProgressRow is one (user, dataset) row of the campaign status report.
type ProgressRow struct {
	PID       string `json:"pid"`
	Dataset   string `json:"dataset"`
	Answered  int    `json:"answered"`
	Total     int    `json:"total"`
	LastTS    *int64 `json:"lastTS"`
	Submitted bool   `json:"submitted"`
}

type CampaignStatus struct {
	Users    []UserAccuracy `json:"users"`
	Datasets []string       `json:"datasets"`
	Progress []ProgressRow  `json:"progress"`
	Meta     CampaignMeta   `json:"meta"`
}
