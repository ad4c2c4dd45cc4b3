package model

import "strings"

// AdjudicationKey identifies one pending or resolved request. Stored in the
// pending/past sets as "pid:dataset:uid".
type AdjudicationKey struct {
	PID     string
	Dataset string
	UID     string
}

func (k AdjudicationKey) String() string {
	return k.PID + ":" + k.Dataset + ":" + k.UID
}

func ParseAdjudicationKey(s string) (AdjudicationKey, bool) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return AdjudicationKey{}, false
	}
	return AdjudicationKey{PID: parts[0], Dataset: parts[1], UID: parts[2]}, true
}

// AdjudicationCase is one pending request as shown to the reviewer.
type AdjudicationCase struct {
	PID              string `json:"pid"`
	OtherPID         string `json:"otherPid"`
	Dataset          string `json:"dataset"`
	UID              string `json:"uid"`
	Question         string `json:"question"`
	Answer           string `json:"answer"`
	OtherAnswer      string `json:"otherAnswer"`
	Label            string `json:"label"`
	MapFile          string `json:"mapFile"`
	AdjudicatorLabel string `json:"adjudicator_label"`
	BadReason        string `json:"badReason"`
	OtherBadReason   string `json:"otherBadReason"`
}

// PastAdjudicationCase adds the resolution outcome to a case.
type PastAdjudicationCase struct {
	AdjudicationCase
	Adjudication       string `json:"adjudication"`
	AdjudicationReason string `json:"adjudication_reason"`
}
