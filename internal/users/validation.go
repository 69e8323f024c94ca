package users

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// RuleSet is the validation contract of one operation: validator tags per
// field, plus fields that must equal their confirmation field when present.
type RuleSet struct {
	Fields    map[string]string
	Confirmed map[string]string
}

// Rules groups the rule sets used by Service.
type Rules struct {
	Create RuleSet
	Update RuleSet
}

// DefaultRules mirrors the account policy: names and emails up to 255
// characters, passwords of at least 6 characters confirmed twice.
func DefaultRules() Rules {
	return Rules{
		Create: RuleSet{
			Fields: map[string]string{
				FieldName:     "required,max=255",
				FieldEmail:    "required,max=255,email",
				FieldPassword: "required,min=6",
			},
			Confirmed: map[string]string{FieldPassword: FieldPasswordConfirmation},
		},
		Update: RuleSet{
			Fields: map[string]string{
				FieldName:     "required,max=255",
				FieldEmail:    "required,max=255,email",
				FieldPassword: "omitempty,min=6",
			},
			Confirmed: map[string]string{FieldPassword: FieldPasswordConfirmation},
		},
	}
}

type formValidator struct {
	validate *validator.Validate
}

func newFormValidator() formValidator {
	return formValidator{validate: validator.New()}
}

// check runs rules over values and returns field messages; empty means valid.
func (f formValidator) check(rules RuleSet, values map[string]string) map[string]string {
	errs := make(map[string]string)
	for field, tag := range rules.Fields {
		if err := f.validate.Var(values[field], tag); err != nil {
			errs[field] = messageFor(err)
		}
	}
	for field, confirmation := range rules.Confirmed {
		if _, failed := errs[field]; failed || values[field] == "" {
			continue
		}
		if err := f.validate.VarWithValue(values[field], values[confirmation], "eqcsfield"); err != nil {
			errs[field] = messageFor(err)
		}
	}
	return errs
}

func messageFor(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "is invalid"
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "max":
		return "must not exceed " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "email":
		return MsgInvalidEmail
	case "eqcsfield":
		return MsgConfirmMismatch
	default:
		return "is invalid"
	}
}

func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
