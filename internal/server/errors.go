package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"payment-gateway/internal/domain"
	"payment-gateway/internal/logging"
)

const (
	codeNotFound       = "NOT_FOUND_ERROR"
	codeBadRequest     = "BAD_REQUEST_ERROR"
	codeAuthentication = "AUTHENTICATION_ERROR"
	codeInvalidVPA     = "INVALID_VPA"
	codeInvalidCard    = "INVALID_CARD"
	codeExpiredCard    = "EXPIRED_CARD"
	codeInternal       = "INTERNAL_SERVER_ERROR"
)

type errorBody struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

func writeError(c *gin.Context, status int, code, description string) {
	c.AbortWithStatusJSON(status, gin.H{"error": errorBody{Code: code, Description: description}})
}

// respondError maps a service error onto the public error envelope. Anything
// unrecognised becomes an opaque 500.
func respondError(c *gin.Context, err error) {
	if ie, ok := domain.IsInvalidInstrument(err); ok {
		switch ie.Reason {
		case domain.ReasonVPA:
			writeError(c, http.StatusBadRequest, codeInvalidVPA, "Invalid VPA")
		case domain.ReasonCardExpired:
			writeError(c, http.StatusBadRequest, codeExpiredCard, "Card has expired")
		default:
			writeError(c, http.StatusBadRequest, codeInvalidCard, "Invalid card number")
		}
		return
	}

	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(c, http.StatusNotFound, codeNotFound, "Order not found")
	case errors.Is(err, domain.ErrPaymentNotFound):
		writeError(c, http.StatusNotFound, codeNotFound, "Payment not found")
	case errors.Is(err, domain.ErrUnsupportedMethod):
		writeError(c, http.StatusBadRequest, codeBadRequest, "Unsupported payment method")
	case errors.Is(err, domain.ErrInvalidOrder):
		writeError(c, http.StatusBadRequest, codeBadRequest, err.Error())
	default:
		logging.FromContext(c.Request.Context()).Error("request_failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, codeInternal, "")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrMerchantNotFound)
}
