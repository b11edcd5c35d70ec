// Package forms runs the local checks a screen does before calling the server.
//
// Forms are plain structs tagged for go-playground/validator. Each screen
// supplies an ordered list of Rules; the first rule whose tag failed on any
// field decides the single message shown to the user.
package forms

import (
	"errors"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Custom tags
const (
	TagBasicEmail     = "basicemail"
	TagNotBlank       = "notblank"
	TagNonNegNumber   = "nonnegnumber"
	TagPositiveNumber = "posint"
)

// emailPattern is the deliberately loose local@domain.tld check; the server
// owns real address validation.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Rule maps a failed validation tag to the message shown for it
type Rule struct {
	Tag     string
	Message string
}

// Error is a local validation failure
type Error struct {
	Field   string
	Tag     string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsValidation reports whether err is a local validation failure
func IsValidation(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation(TagBasicEmail, func(fl validator.FieldLevel) bool {
			return emailPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation(TagNotBlank, func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation(TagNonNegNumber, func(fl validator.FieldLevel) bool {
			f, err := strconv.ParseFloat(strings.TrimSpace(fl.Field().String()), 64)
			return err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) && f >= 0
		})
		_ = v.RegisterValidation(TagPositiveNumber, func(fl validator.FieldLevel) bool {
			n, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
			return err == nil && n > 0
		})
		instance = v
	})
	return instance
}

// Check validates form and returns the message of the highest-priority
// failing rule. A failing tag with no rule maps to fallback.
func Check(form any, rules []Rule, fallback string) error {
	err := engine().Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	for _, rule := range rules {
		for _, fe := range verrs {
			if fe.Tag() == rule.Tag {
				return &Error{Field: fe.Field(), Tag: fe.Tag(), Message: rule.Message}
			}
		}
	}

	first := verrs[0]
	return &Error{Field: first.Field(), Tag: first.Tag(), Message: fallback}
}

// ValidEmail applies the same loose pattern used by the forms
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
