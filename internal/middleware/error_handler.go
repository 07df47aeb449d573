package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"cardgate_app/internal/repository"
	"cardgate_app/internal/services"
)

// APIErrorHandler is the Echo error handler: it translates domain errors
// into status codes and a uniform JSON body. Raw gateway/library errors
// never reach here untranslated; anything unrecognized is a 500.
func APIErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"

	var (
		httpErr       *echo.HTTPError
		chargeFailed  *services.ChargeFailedError
		threedsFailed *services.ThreedsError
		lineMismatch  *services.LineMismatchError
		voidFailed    *services.VoidError
		cardFailed    *services.CardStorageError
	)

	switch {
	case errors.As(err, &httpErr):
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(code)
		}
	case errors.Is(err, services.ErrBillingFields),
		errors.Is(err, services.ErrNoStoredCard),
		errors.Is(err, services.ErrEmptyProducts),
		errors.Is(err, services.ErrInstallment):
		code = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, services.ErrAttemptNotFound), errors.Is(err, repository.ErrNotFound):
		code = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, services.ErrCallbackInFlight):
		code = http.StatusConflict
		message = err.Error()
	case errors.As(err, &chargeFailed), errors.As(err, &threedsFailed),
		errors.As(err, &voidFailed), errors.As(err, &cardFailed):
		code = http.StatusPaymentRequired
		message = err.Error()
	case errors.As(err, &lineMismatch):
		code = http.StatusUnprocessableEntity
		message = err.Error()
	}

	if code == http.StatusInternalServerError {
		c.Logger().Error(err)
	}

	if jsonErr := c.JSON(code, map[string]interface{}{
		"success": false,
		"error":   message,
	}); jsonErr != nil {
		c.Logger().Error(jsonErr)
	}
}
