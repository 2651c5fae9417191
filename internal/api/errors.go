package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/pagecarbon/internal/model"
)

// Error codes returned in ErrorDetail.Code.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeInvalidURL   = "INVALID_URL"
	ErrCodeFetchFailed  = "FETCH_FAILED"
	ErrCodeParseFailed  = "PARSE_FAILED"
	ErrCodeTimeout      = "ANALYSIS_TIMEOUT"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeMissingUser  = "MISSING_USER"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// abortWithError writes an error response and stops the handler chain.
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: &ErrorDetail{Code: code, Message: message},
	})
}

// respondAnalysisError maps an analysis failure to a status and code.
func respondAnalysisError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, ErrCodeInternal
	switch {
	case errors.Is(err, model.ErrInvalidURL):
		status, code = http.StatusBadRequest, ErrCodeInvalidURL
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, ErrCodeTimeout
	case errors.Is(err, model.ErrFetch):
		status, code = http.StatusBadGateway, ErrCodeFetchFailed
	case errors.Is(err, model.ErrParse):
		status, code = http.StatusUnprocessableEntity, ErrCodeParseFailed
	}
	abortWithError(c, status, code, err.Error())
}
