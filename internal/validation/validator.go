package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var semesterPattern = regexp.MustCompile(`^\d{4}[AB]$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(fieldName)
	_ = v.RegisterValidation("semester", func(fl validator.FieldLevel) bool {
		return semesterPattern.MatchString(fl.Field().String())
	})
	return v
}

// Struct validates s against its struct tags, including the "semester"
// tag for observing semesters such as 2024A.
func Struct(s any) error {
	return validate.Struct(s)
}

// fieldName reports a field by the name the client used: its json, query
// or param tag, falling back to the Go name.
func fieldName(f reflect.StructField) string {
	for _, key := range []string{"json", "query", "param"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}
