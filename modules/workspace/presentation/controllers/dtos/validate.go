package dtos

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// check validates dto and returns the failures keyed by wire field name.
func check(dto any) (map[string]string, bool) {
	errorMessages := map[string]string{}
	errs := validate.Struct(dto)
	if errs == nil {
		return errorMessages, true
	}
	verrs, ok := errs.(validator.ValidationErrors)
	if !ok {
		errorMessages["_"] = errs.Error()
		return errorMessages, false
	}
	for _, err := range verrs {
		errorMessages[fieldPath(err)] = message(err)
	}
	return errorMessages, len(errorMessages) == 0
}

// fieldPath drops the struct name from the namespace, e.g. members[0].role.
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return err.Field()
}

func message(err validator.FieldError) string {
	switch err.Tag() {
	case "required", "required_without":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uuid":
		return "must be a uuid"
	case "oneof":
		return "must be one of " + err.Param()
	case "max":
		return "must be at most " + err.Param()
	case "min":
		return "must be at least " + err.Param()
	default:
		return fmt.Sprintf("failed on %s", err.Tag())
	}
}

// Error converts Ok failures into a validation error on the first field in name order.
func Error(errs map[string]string) error {
	if len(errs) == 0 {
		return nil
	}
	field := ""
	for f := range errs {
		if field == "" || f < field {
			field = f
		}
	}
	return serrors.Validation("VALIDATION_FAILED", field, field+" "+errs[field])
}

func parseID(s string) uuid.UUID {
	if s == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
