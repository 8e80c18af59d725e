package stage

import (
	"dance-entry-api/internal/util"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		return jsonName(sf)
	})
	_ = v.RegisterValidation("kana", func(fl validator.FieldLevel) bool {
		return IsKana(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	})
	_ = v.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
		_, _, err := util.ParseDay(fl.Field().String())
		return err == nil
	})
	return v
}

// IsKana accepts hiragana, katakana, the long vowel mark, middle dot and
// spaces.
func IsKana(s string) bool {
	for _, r := range s {
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana):
		case r == 'ー', r == '・', r == ' ', r == '　':
		default:
			return false
		}
	}
	return true
}

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9-]*[0-9]$`)

// IsPhone accepts digits with optional hyphens and a leading +, 10 to 15
// digits in total.
func IsPhone(s string) bool {
	if !phonePattern.MatchString(s) || strings.Contains(s, "--") {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 10 && digits <= 15
}

// validateRecord runs the format rules on rec and folds in whatever Evaluate
// found missing.
func validateRecord(rec Record, res Result) *ValidationError {
	fields := map[string]string{}

	if err := validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			fields["_"] = err.Error()
		}
		for _, fe := range verrs {
			fields[fe.Field()] = messageFor(fe)
		}
	}

	for _, f := range res.MissingFields {
		if _, ok := fields[f]; !ok {
			fields[f] = "is required"
		}
	}
	for _, f := range res.MissingFlags {
		fields[f] = "must be checked"
	}
	for _, r := range res.MissingFiles {
		fields[string(r)] = "file is required"
	}
	for _, f := range res.InvalidFields {
		if _, ok := fields[f]; !ok {
			fields[f] = "is not a valid date"
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + fe.Param()
	case "numeric":
		return "must contain digits only"
	case "kana":
		return "must be written in kana"
	case "phone":
		return "must be a valid phone number"
	case "ymd":
		return "must be a date in YYYY-MM-DD format"
	default:
		return "is invalid"
	}
}
