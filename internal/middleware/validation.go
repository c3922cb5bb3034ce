package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/flow-api/internal/model"
)

// RegisterDomainValidators wires the domain's custom binding rules into
// gin's validator engine. Field names in validation errors follow the json
// tag, so API callers see the names they actually sent.
func RegisterDomainValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	if err := v.RegisterValidation("specialty", validSpecialty); err != nil {
		panic(err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})
}

func validSpecialty(fl validator.FieldLevel) bool {
	return model.Specialty(fl.Field().String()).Valid()
}
