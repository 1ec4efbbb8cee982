package esclient

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()
	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("esclient: failed to get 'en' translator")
	}
	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}
}

// FieldError is one failed rule on a request field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors is returned by validators built with RequireFields and
// ValidateRules. It matches ErrInvalidArgument.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Err
	}
	return "esclient: invalid request: " + strings.Join(parts, "; ")
}

// Is reports ErrInvalidArgument.
func (fe FieldErrors) Is(target error) bool {
	return target == ErrInvalidArgument
}

// Fields returns the names of the failing fields.
func (fe FieldErrors) Fields() []string {
	names := make([]string, len(fe))
	for i, f := range fe {
		names[i] = f.Field
	}
	return names
}

// RequireFields returns a validator failing when any named field is empty.
// Names are "index", "type", "id", "endpoint", "body" or a query
// parameter key.
//
// Example:
//
//	esclient.RawKind("Delete", http.MethodDelete, "").
//	    WithValidate(esclient.RequireFields("index", "id"))
func RequireFields(fields ...string) func(Target) error {
	rules := make(map[string]string, len(fields))
	for _, f := range fields {
		rules[f] = "required"
	}
	return ValidateRules(rules)
}

// ValidateRules returns a validator applying validator tag rules per field,
// e.g. {"size": "omitempty,min=1,max=10000"}. Missing parameters are
// validated as nil.
func ValidateRules(rules map[string]string) func(Target) error {
	return func(t Target) error {
		values := t.fields()

		names := make([]string, 0, len(rules))
		for name := range rules {
			names = append(names, name)
		}
		sort.Strings(names)

		var fields FieldErrors
		for _, name := range names {
			err := validate.Var(values[name], rules[name])
			if err == nil {
				continue
			}
			var verrors validator.ValidationErrors
			if !errors.As(err, &verrors) {
				return err
			}
			for _, verror := range verrors {
				fields = append(fields, FieldError{
					Field: name,
					Err:   customErrForTag(name, verror),
				})
			}
		}
		if len(fields) > 0 {
			return fields
		}
		return nil
	}
}

// fields flattens the target into named values. Path parts take precedence
// over query parameters with the same name.
func (t Target) fields() map[string]any {
	values := make(map[string]any, len(t.Params)+5)
	for k, v := range t.Params {
		values[k] = v
	}
	values["index"] = strings.Join(t.Path.Indices, ",")
	values["type"] = t.Path.Type
	values["id"] = t.Path.ID
	values["endpoint"] = t.Path.Endpoint
	values["body"] = t.HasBody
	return values
}

func customErrForTag(field string, verror validator.FieldError) string {
	switch verror.Tag() {
	case "required":
		return "This field is required"
	default:
		// Var errors carry no field name; the translation starts at the verb.
		return field + verror.Translate(translator)
	}
}
