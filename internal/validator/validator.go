package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/stemsi/cohortsched-backend/internal/cohort"
	"github.com/stemsi/cohortsched-backend/internal/model"
)

// trans is the singleton English translator for validation errors.
var trans ut.Translator

// customTags are the schedule-specific rules and their English messages.
var customTags = []struct {
	tag     string
	fn      govalidator.Func
	message string
}{
	{"hhmm", validateClock, "{0} must be a time of day in HH:MM format"},
	{"cohort_type", validateCohortType, "{0} must contain letters only"},
	{"cohort_number", validateCohortNumber, "{0} must be dot-separated digits, e.g. 1.1"},
}

// Setup registers the validator with English translations on Gin's binding engine.
// Call once during application startup.
func Setup() {
	if v, ok := binding.Validator.Engine().(*govalidator.Validate); ok {
		Register(v)
	}
}

// Register installs tag naming, custom rules and translations on v.
func Register(v *govalidator.Validate) {
	// Use JSON tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	for _, ct := range customTags {
		_ = v.RegisterValidation(ct.tag, ct.fn)
		message := ct.message
		_ = v.RegisterTranslation(ct.tag, trans,
			func(ut ut.Translator) error { return ut.Add(ct.tag, message, true) },
			func(ut ut.Translator, fe govalidator.FieldError) string {
				t, _ := ut.T(fe.Tag(), fe.Field())
				return t
			})
	}
}

func validateClock(fl govalidator.FieldLevel) bool {
	_, err := model.ParseClock(fl.Field().String())
	return err == nil
}

func validateCohortType(fl govalidator.FieldLevel) bool {
	_, err := cohort.NewKey(fl.Field().String(), "1")
	return err == nil
}

func validateCohortNumber(fl govalidator.FieldLevel) bool {
	_, err := cohort.NewKey("A", fl.Field().String())
	return err == nil
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name → human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// BindURI binds and validates path parameters into dst.
func BindURI(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindUri(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
