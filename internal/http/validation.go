package http

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/example/campus-planner/internal/domain"
)

// custom validation tags
const (
	weekdayTag   = "weekday"
	timeOfDayTag = "hhmm"
	dateTag      = "date"
	notBlankTag  = "notblank"
)

// requestValidator plugs go-playground/validator into echo's Validator.
type requestValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func newRequestValidator() *requestValidator {
	validate := validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = fld.Tag.Get("query")
		}
		return name
	})

	_ = validate.RegisterValidation(weekdayTag, func(fl validator.FieldLevel) bool {
		_, err := domain.ParseWeekday(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation(timeOfDayTag, func(fl validator.FieldLevel) bool {
		_, err := domain.ParseTimeOfDay(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation(dateTag, func(fl validator.FieldLevel) bool {
		_, err := domain.ParseDate(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	messages := map[string]string{
		weekdayTag:   "must be a weekday name such as Monday",
		timeOfDayTag: "must be a time formatted as HH:MM",
		dateTag:      "must be a date formatted as YYYY-MM-DD",
		notBlankTag:  "cannot be blank",
	}
	// Messages are built in the translation func; nothing to register up front.
	registerFn := func(ut.Translator) error { return nil }
	for tag, message := range messages {
		message := message
		_ = validate.RegisterTranslation(tag, translator, registerFn, func(_ ut.Translator, fe validator.FieldError) string {
			return fe.Field() + " " + message
		})
	}

	return &requestValidator{validate: validate, translator: translator}
}

// Validate implements echo.Validator.
func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

func (v *requestValidator) fieldErrors(errs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = fe.Translate(v.translator)
	}
	return fields
}
