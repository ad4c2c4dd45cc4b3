package model

import (
	"encoding/json"
	"strconv"
)

// AccuracyValue is either a numeric accuracy or a plain marker string — the
// grader may emit "submitted" for datasets it cannot score numerically.
type AccuracyValue struct {
	Number   float64
	Text     string
	IsNumber bool
}

func (a *AccuracyValue) UnmarshalJSON(b []byte) error {
	*a = AccuracyValue{}

	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		a.Number = n
		a.IsNumber = true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	a.Text = s
	return nil
}

func (a AccuracyValue) MarshalJSON() ([]byte, error) {
	if a.IsNumber {
		return json.Marshal(a.Number)
	}
	return json.Marshal(a.Text)
}

// Marker renders the value as stored in the submission marker key.
func (a AccuracyValue) Marker() string {
	if a.IsNumber {
		return strconv.FormatFloat(a.Number, 'g', -1, 64)
	}
	return a.Text
}

// Zero reports whether the grader produced neither a number nor a string.
func (a AccuracyValue) Zero() bool {
	return !a.IsNumber && a.Text == ""
}

// GradeResult is the grader collaborator's output line.
type GradeResult struct {
	Accuracy AccuracyValue `json:"accuracy"`
	EvalFile string        `json:"eval_file"`
}

// EvalUpdate is one line of the grader's eval file.
type EvalUpdate struct {
	UID     string `json:"uid"`
	LLMEval string `json:"llm_eval"`
}

// UnmatchedAnnotation flags one question the two annotators disagreed on.
// Label carries the first annotator's answer, PredText the second's.
type UnmatchedAnnotation struct {
	UID      string `json:"uid"`
	LLMEval  string `json:"llm_eval"`
	Label    string `json:"Label"`
	PredText string `json:"pred_text"`
}

// CompareResult is the pairwise-comparison collaborator's output line.
type CompareResult struct {
	Accuracy             AccuracyValue         `json:"accuracy"`
	IncorrectAnnotations []UnmatchedAnnotation `json:"incorrect_annotations"`
}
