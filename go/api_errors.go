package fulfillmentserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	fulfillmentapp "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/application"
	fulfillmentdomain "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
	fulfillmentports "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/ports"
	apierrors "github.com/Apurer/go-fulfillment-server/internal/shared/errors"
)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	apierrors.Respond(c, problem)
}

// respondError preserves the existing call sites while returning RFC 7807 responses.
func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		return
	}
	var problem apierrors.ProblemDetail
	switch status {
	case http.StatusBadRequest:
		problem = apierrors.ErrBadRequest.WithDetail(err.Error())
	case http.StatusNotFound:
		problem = apierrors.ErrNotFound.WithDetail(err.Error())
	case http.StatusUnauthorized:
		problem = apierrors.ErrUnauthorized.WithDetail(err.Error())
	case http.StatusForbidden:
		problem = apierrors.ErrForbidden.WithDetail(err.Error())
	default:
		problem = apierrors.ErrInternal.WithDetail(err.Error())
	}
	respondProblem(c, problem)
}

// serviceResponder maps fulfillment service errors through the shared
// problem responder before falling back to a generic 500.
var serviceResponder = apierrors.NewChainedResponder("", mapServiceError)

// respondServiceError translates fulfillment service errors into problems.
// Transition conflicts and stale-state retries both surface as 409; stock
// and sellability rejections as 422 so the client knows the request shape
// was fine but the order cannot be fulfilled.
func respondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	serviceResponder.RespondError(c, err)
}

func mapServiceError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, fulfillmentapp.ErrInvalidInput),
		errors.Is(err, fulfillmentapp.ErrEmptyCart),
		errors.Is(err, fulfillmentapp.ErrCartTooLarge),
		errors.Is(err, fulfillmentdomain.ErrInvalidAssignment):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, fulfillmentports.ErrProductNotFound),
		errors.Is(err, fulfillmentports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, fulfillmentdomain.ErrIllegalTransition):
		return apierrors.ErrIllegalTransition.WithDetail(err.Error()), true
	case errors.Is(err, fulfillmentports.ErrConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, fulfillmentports.ErrInsufficientStock):
		return apierrors.ErrInsufficientStock.WithDetail(err.Error()), true
	case errors.Is(err, fulfillmentdomain.ErrProductNotSellable),
		errors.Is(err, fulfillmentdomain.ErrInvalidPrice):
		return apierrors.ErrUnprocessable.WithDetail(err.Error()), true
	case errors.Is(err, fulfillmentapp.ErrCheckoutTimeout):
		return apierrors.ErrTimeout.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
