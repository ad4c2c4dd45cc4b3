package util

import "errors"

var (
	ErrDatasetNotFound       = errors.New("unknown dataset")
	ErrTopicNotFound         = errors.New("unknown topic")
	ErrDatasetExists         = errors.New("dataset exists")
	ErrQuestionNotFound      = errors.New("question not found")
	ErrResponseNotFound      = errors.New("response not found")
	ErrNotYourResponse       = errors.New("not your response")
	ErrAlreadySubmitted      = errors.New("dataset already submitted")
	ErrAdjudicationForbidden = errors.New("adjudication not allowed")
	ErrCampaignMetaMissing   = errors.New("campaign metadata missing")
	ErrCampaignMetaInvalid   = errors.New("campaign metadata invalid")
	ErrCampaignQuotaUnset    = errors.New("numImages not set in campaign metadata")
	ErrGeneratorSkipped      = errors.New("dataset generator skipped")
	ErrArchiveDisabled       = errors.New("archive disabled")
	ErrBadPasscode           = errors.New("forbidden")
)
