package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nrtkbb/nebula/scanner"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type validator interface {
	Validate() error
}

// startSpan opens a handler span and stores its context on the request.
func startSpan(c echo.Context, name string) trace.Span {
	ctx, span := otel.Tracer("api/handlers").Start(c.Request().Context(), name)
	c.SetRequest(c.Request().WithContext(ctx))
	return span
}

// bindRequest decodes the JSON body into req and validates it. Decoding and
// validation failures are both reported as 422.
func bindRequest(c echo.Context, req validator) error {
	if err := c.Bind(req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprint(he.Message)).SetInternal(err)
		}
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error()).SetInternal(err)
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}

func requireField[T any](name string, v *T) error {
	if v == nil {
		return fmt.Errorf("%s: field required", name)
	}
	return nil
}

func positiveField(name string, v *int) error {
	if v != nil && *v <= 0 {
		return fmt.Errorf("%s: must be greater than 0", name)
	}
	return nil
}

// folderHTTPError maps directory errors to 400 with their localized message.
func folderHTTPError(err error) error {
	var fe *scanner.FolderError
	if errors.As(err, &fe) {
		return echo.NewHTTPError(http.StatusBadRequest, fe.Message).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)).SetInternal(err)
}
