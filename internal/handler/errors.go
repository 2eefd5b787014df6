package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pazar_api/internal/pricing"
	"github.com/GTDGit/pazar_api/internal/service"
	"github.com/GTDGit/pazar_api/internal/utils"
)

// clientErrors maps sentinel errors to their HTTP status. The sentinel text
// is the error code.
var clientErrors = []struct {
	err    error
	status int
}{
	{utils.ErrSettingsMissing, http.StatusBadRequest},
	{utils.ErrInvalidRequest, http.StatusBadRequest},
	{utils.ErrInvalidJob, http.StatusBadRequest},
	{utils.ErrBatchTooLarge, http.StatusBadRequest},
	{utils.ErrEmailTaken, http.StatusConflict},
	{utils.ErrInvalidCredentials, http.StatusUnauthorized},
	{utils.ErrNotFound, http.StatusNotFound},
	{utils.ErrProvider, http.StatusBadGateway},
}

// respondError writes err using the standard envelope.
func respondError(c *gin.Context, err error) {
	var missing *pricing.MissingDataError
	if errors.As(err, &missing) {
		utils.ErrorWithData(c, http.StatusBadRequest, "MISSING_DATA", err.Error(), gin.H{"table": missing.Table})
		return
	}
	var weak *service.WeakPasswordError
	if errors.As(err, &weak) {
		utils.ErrorWithData(c, http.StatusBadRequest, utils.ErrWeakPassword.Error(), err.Error(), gin.H{"problems": weak.Problems})
		return
	}
	for _, ce := range clientErrors {
		if errors.Is(err, ce.err) {
			if ce.status == http.StatusBadGateway {
				log.Warn().Err(err).Str("path", c.FullPath()).Msg("Provider call failed")
			}
			utils.Error(c, ce.status, ce.err.Error(), err.Error())
			return
		}
	}

	log.Error().Err(err).Str("path", c.FullPath()).Int("user_id", c.GetInt("user_id")).Msg("Request failed")
	utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}

func invalidRequest(c *gin.Context, err error) {
	utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
}
