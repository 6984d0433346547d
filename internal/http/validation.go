package http

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"spendtrack/internal/core"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// String must contain at least one non-space character.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), func(r rune) bool { return !unicode.IsSpace(r) }) >= 0
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		_, err := core.ParseCategory(fl.Field().String())
		return err == nil
	})
	return v
}

type transcriptRequest struct {
	Text string `validate:"notblank,max=2000"`
}

type manualRequest struct {
	Date          string `validate:"omitempty,datetime=2006-01-02"`
	Merchant      string `validate:"notblank,max=200"`
	Amount        string `validate:"notblank,max=32"`
	PaymentMethod string `validate:"max=50"`
	Notes         string `validate:"max=1000"`
}

type budgetsRequest struct {
	Categories []string `validate:"min=1,dive,category"`
}

// validationDetails flattens validator errors into "field: rule" strings.
func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return out
}
