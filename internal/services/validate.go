package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/or73/Async-API-Pizza-Delivery/internal/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkInput validates in against its struct tags and returns an
// InvalidArgument error naming the offending fields.
func checkInput(op string, in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.InvalidArgument, op, "invalid input", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return apperr.Errorf(apperr.InvalidArgument, op, "missing or invalid required fields: %s", strings.Join(fields, ", "))
}

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

func validTokenID(id string) bool {
	return validate.Var(id, "required,len=20") == nil
}
