package utils

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their JSON names so messages match the request body.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// ValidateStruct checks validate tags and turns the first failure into a 400.
func ValidateStruct(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return BadRequest("Invalid request").WithDetails(err.Error())
	}
	fe := verrs[0]
	field := fieldPath(fe)
	if fe.Tag() == "required" {
		return MissingField(field)
	}
	return BadRequest(fmt.Sprintf("Invalid value for field: %s", field)).WithDetails(fe.Error())
}

// MissingField is the 400 returned for an absent required field.
func MissingField(name string) *AppError {
	return BadRequest(fmt.Sprintf("Missing required field: %s", name))
}

// Unavailable is returned when a collaborator needed to answer safely is down.
func Unavailable(message string, err error) *AppError {
	return &AppError{Status: http.StatusServiceUnavailable, Message: message, Err: err}
}

// fieldPath drops the top-level struct name: "BookingRequest.customer_name" -> "customer_name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
