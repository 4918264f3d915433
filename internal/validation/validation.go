// Package validation checks decoded request payloads.
package validation

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/cccteam/eduauth/roles"
	"github.com/cccteam/httpio"
	"github.com/go-playground/errors/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// custom validation tags
const (
	notBlankTag = "notblank"
	passwordTag = "password"
	roleTag     = "role"
)

// MinPasswordLength is the shortest password accepted for a new account.
const MinPasswordLength = 8

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON names rather than Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(passwordTag, password)
	_ = validate.RegisterValidation(roleTag, role)

	noop := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, passwordTag, roleTag} {
		_ = validate.RegisterTranslation(tag, translator, noop, translateCustom)
	}
}

// Struct validates v and returns a BadRequest client message naming the first
// offending field. It satisfies httpio.ValidatorFunc.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return httpio.NewBadRequestMessageWithError(err, fieldErrs[0].Translate(translator))
	}

	return errors.Wrap(err, "validator.Validate.Struct()")
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case passwordTag:
		return fe.Field() + " must be at least 8 characters with upper and lower case letters and a digit, without spaces"
	case roleTag:
		return fe.Field() + " must be one of " + strings.Join(roles.Names(roles.All), ", ")
	default:
		return fe.Error()
	}
}

func notBlank(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)

	return ok && strings.TrimSpace(s) != ""
}

func role(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := roles.Parse(s)

	return err == nil
}

// password enforces the account password policy.
func password(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok || len([]rune(s)) < MinPasswordLength {
		return false
	}

	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			return false
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	return upper && lower && digit
}
