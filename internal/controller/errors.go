package controller

import (
	"errors"
	"map_survey_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto the wire contract. Unknown errors are
// logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrDatasetNotFound),
		errors.Is(err, util.ErrTopicNotFound),
		errors.Is(err, util.ErrQuestionNotFound),
		errors.Is(err, util.ErrResponseNotFound):
		util.NotFound(c, err.Error())
	case errors.Is(err, util.ErrNotYourResponse),
		errors.Is(err, util.ErrAlreadySubmitted),
		errors.Is(err, util.ErrAdjudicationForbidden),
		errors.Is(err, util.ErrBadPasscode):
		util.Forbidden(c, err.Error())
	case errors.Is(err, util.ErrDatasetExists):
		util.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, util.ErrArchiveDisabled):
		util.Error(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, util.ErrCampaignMetaMissing),
		errors.Is(err, util.ErrCampaignMetaInvalid),
		errors.Is(err, util.ErrCampaignQuotaUnset):
		util.InternalServerError(c, err.Error())
	default:
		util.LogInternalError(c, err)
	}
}
