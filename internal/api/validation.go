package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/alexivanou/weather-dashboard/internal/apperr"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their wire names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// geocodeQuery holds query parameters for GET /geocode.
type geocodeQuery struct {
	Q string `json:"q" validate:"required"`
}

// weatherQuery holds query parameters for GET /weather.
// Values are forwarded as strings; range checks are left to the provider.
type weatherQuery struct {
	Lat string `json:"lat" validate:"required"`
	Lon string `json:"lon" validate:"required"`
}

// historyQuery holds query parameters for GET /history.
type historyQuery struct {
	DeviceID string `json:"device_id" validate:"required"`
}

// validationError converts validator output into an apperr.ValidationError
// naming the first failing field.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &apperr.ValidationError{Message: err.Error()}
	}

	fe := fieldErrs[0]
	field := strings.TrimPrefix(fe.Namespace(), namespaceRoot(fe.Namespace()))
	switch fe.Tag() {
	case "required":
		return apperr.NewValidation(field, "is required")
	case "latitude", "longitude":
		return apperr.NewValidation(field, fmt.Sprintf("must be a valid %s", fe.Tag()))
	default:
		return apperr.NewValidation(field, fmt.Sprintf("failed %q check", fe.Tag()))
	}
}

// namespaceRoot returns the leading "Struct." segment of a validator namespace.
func namespaceRoot(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[:i+1]
	}
	return ""
}
