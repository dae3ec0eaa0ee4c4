package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/padelhub/storefront/pkg/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags and returns field errors in field order.
func validateStruct(v any) model.FieldErrors {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.FieldErrors{{Field: "", Message: err.Error()}}
	}
	out := make(model.FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, model.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "eqfield":
		return "does not match"
	case "gte":
		return "must be at least " + fe.Param()
	}
	return "is invalid"
}

// validateProduct parses and validates a product payload.
func validateProduct(r ProductRequest) (model.ProductForm, model.FieldErrors) {
	form, errs := r.toForm()
	errs = append(errs, validateStruct(form)...)
	errs = append(errs, form.CheckAmounts()...)
	return form, errs
}
