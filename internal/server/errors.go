package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	commissiondomain "github.com/palcolabs/palco/internal/commission/domain"
)

var ErrUnauthorized = errors.New("unauthorized")

type apiError struct {
	status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string { return e.Code }

func newValidationError(field, code, message string) error {
	return &apiError{
		status:  http.StatusBadRequest,
		Code:    code,
		Message: field + ": " + message,
	}
}

func invalidRequestError() error {
	return &apiError{
		status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "request body or query could not be parsed",
	}
}

// AbortWithError maps domain errors onto HTTP responses. Malformed
// events are client errors, unresolvable beneficiaries are retryable
// 404s, and timed-out aggregates are 503 so dashboards retry rather
// than render a partial report.
func AbortWithError(c *gin.Context, err error) {
	var api *apiError
	if errors.As(err, &api) {
		c.AbortWithStatusJSON(api.status, gin.H{"error": api})
		return
	}

	status := http.StatusInternalServerError
	code := "internal"
	switch {
	case errors.Is(err, ErrUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, commissiondomain.ErrInvalidSourceRef),
		errors.Is(err, commissiondomain.ErrInvalidArtist),
		errors.Is(err, commissiondomain.ErrInvalidQuantity),
		errors.Is(err, commissiondomain.ErrInvalidPrice),
		errors.Is(err, commissiondomain.ErrInvalidRate),
		errors.Is(err, commissiondomain.ErrInvalidReferral),
		errors.Is(err, commissiondomain.ErrInvalidKind),
		errors.Is(err, commissiondomain.ErrInvalidItemKind),
		errors.Is(err, commissiondomain.ErrInvalidExportWindow),
		errors.Is(err, commissiondomain.ErrInvalidExportFormat):
		status, code = http.StatusBadRequest, err.Error()
	case errors.Is(err, commissiondomain.ErrArtistNotFound),
		errors.Is(err, commissiondomain.ErrReferralNotFound):
		status, code = http.StatusNotFound, err.Error()
	case errors.Is(err, commissiondomain.ErrSettlementConflict):
		status, code = http.StatusConflict, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusServiceUnavailable, "retryable_timeout"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{
		"code":    code,
		"message": err.Error(),
	}})
}
