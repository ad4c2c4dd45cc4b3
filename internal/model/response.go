package model

// Adjudication outcomes applied to stored responses.
const (
	AdjudicationCorrect   = "Correct"
	AdjudicationIncorrect = "Incorrect"
	AdjudicationRejected  = "Rejected"
)

// Response is one annotator's answer to one question, stored as JSON under
// v1:<pid>:<dataset>:<uid>. One response per (user, dataset, question);
// later submissions overwrite.
type Response struct {
	UID           string `json:"uid"`
	ProlificID    string `json:"prolificID"`
	Dataset       string `json:"dataset"`
	QuestionIndex int    `json:"questionIndex"`
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	Difficulty    int    `json:"difficulty"`
	BadQuestion   bool   `json:"badQuestion"`
	BadReason     string `json:"badReason"`
	Discard       bool   `json:"discard"`
	StartTime     int64  `json:"startTime,omitempty"`
	StopTime      int64  `json:"stopTime,omitempty"`

	// Unix millis, set server-side on create / edit.
	OrigTimestamp int64 `json:"origTimestamp"`
	EditTimestamp int64 `json:"editTimestamp,omitempty"`

	// Written by the grading / comparison sync.
	LLMEval              string `json:"llm_eval,omitempty"`
	NonconcurredResponse string `json:"nonconcurred_response,omitempty"`

	// Written by adjudication resolution.
	Adjudication       string `json:"adjudication,omitempty"`
	AdjudicationReason string `json:"adjudication_reason,omitempty"`
	AdjudicatorLabel   string `json:"adjudicator_label,omitempty"`

	// Attached on read for the client; never part of the stored record.
	MapFile string `json:"mapFile,omitempty"`
}
