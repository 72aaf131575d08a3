package auth

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/users"
)

// Field names used as FieldErrors keys.
const (
	FieldEmail     = "email"
	FieldPassword  = "password"
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldSession   = "session"
)

// FieldError is a single field-level message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors holds one message per field, ordered by first insertion.
// The zero value is an empty set ready to use.
type FieldErrors struct {
	order    []string
	messages map[string]string
}

// NewFieldErrors returns an empty set.
func NewFieldErrors() FieldErrors {
	return FieldErrors{messages: make(map[string]string)}
}

// Set records msg for field. A later Set on the same field replaces the message but keeps its position.
func (fe *FieldErrors) Set(field, msg string) {
	if fe.messages == nil {
		fe.messages = make(map[string]string)
	}
	if _, exists := fe.messages[field]; !exists {
		fe.order = append(fe.order, field)
	}
	fe.messages[field] = msg
}

func (fe FieldErrors) Has(field string) bool {
	_, ok := fe.messages[field]
	return ok
}

func (fe FieldErrors) Get(field string) string {
	return fe.messages[field]
}

func (fe FieldErrors) Len() int {
	return len(fe.order)
}

func (fe FieldErrors) Empty() bool {
	return len(fe.order) == 0
}

// Fields returns the errors in insertion order.
func (fe FieldErrors) Fields() []FieldError {
	out := make([]FieldError, 0, len(fe.order))
	for _, field := range fe.order {
		out = append(out, FieldError{Field: field, Message: fe.messages[field]})
	}
	return out
}

// Error joins the messages. Only used for logging.
func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe.order))
	for _, field := range fe.order {
		parts = append(parts, field+": "+fe.messages[field])
	}
	return strings.Join(parts, "; ")
}

// RegistrationInput is the raw input of a registration request.
type RegistrationInput struct {
	Email     string `json:"email" validate:"required,email,min=2,max=512"`
	Password  string `json:"password" validate:"required,min=6,max=64"`
	FirstName string `json:"firstName" validate:"required,min=2,max=32,alphanum"`
	LastName  string `json:"lastName" validate:"required,min=2,max=32,alphanum"`
}

// LoginInput is the raw input of a login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email,min=2,max=512"`
	Password string `json:"password" validate:"required,min=6,max=64"`
}

// UserLookup is the read the registration check needs from the user store.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
}

type messageKey struct {
	field string
	tag   string
}

var registrationMessages = map[messageKey]string{
	{FieldEmail, "required"}:     "Please enter your e-mail address.",
	{FieldEmail, "email"}:        "Please enter a valid e-mail.",
	{FieldEmail, "min"}:          "Please enter a valid e-mail.",
	{FieldEmail, "max"}:          "Please enter a valid e-mail.",
	{FieldPassword, "required"}:  "Please enter a password",
	{FieldPassword, "min"}:       "Please enter a password between 6 and 64 characters in length",
	{FieldPassword, "max"}:       "Please enter a password between 6 and 64 characters in length",
	{FieldFirstName, "required"}: "Please enter your first name.",
	{FieldFirstName, "min"}:      "Your first name needs to be between 2-32 characters in length.",
	{FieldFirstName, "max"}:      "Your first name needs to be between 2-32 characters in length.",
	{FieldFirstName, "alphanum"}: "Your first name may only contain letters and numbers.",
	{FieldLastName, "required"}:  "Please enter your last name.",
	{FieldLastName, "min"}:       "Your last name needs to be between 2-32 characters in length.",
	{FieldLastName, "max"}:       "Your last name needs to be between 2-32 characters in length.",
	{FieldLastName, "alphanum"}:  "Your last name may only contain letters and numbers.",
}

var loginMessages = map[messageKey]string{
	{FieldEmail, "required"}:    "Please enter your e-mail address.",
	{FieldEmail, "email"}:       "Please enter a valid e-mail.",
	{FieldEmail, "min"}:         "Please enter a valid e-mail.",
	{FieldEmail, "max"}:         "Please enter a valid e-mail.",
	{FieldPassword, "required"}: "Please enter your password.",
	{FieldPassword, "min"}:      "Please enter a password between 6 and 64 characters in length",
	{FieldPassword, "max"}:      "Please enter a password between 6 and 64 characters in length",
}

var (
	registrationFields = []string{FieldEmail, FieldPassword, FieldFirstName, FieldLastName}
	loginFields        = []string{FieldEmail, FieldPassword}
)

// Validator checks the shape of registration and login input. Every rule runs; violations accumulate.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// ValidateLogin checks login input without touching any store.
func (v *Validator) ValidateLogin(input LoginInput) FieldErrors {
	failed := v.failedTags(input)
	fe := NewFieldErrors()
	for _, field := range loginFields {
		if tag, ok := failed[field]; ok {
			fe.Set(field, message(loginMessages, field, tag))
		}
	}
	return fe
}

// ValidateRegistration checks registration input. The email is looked up only once it is well formed;
// an existing account is a field error. Lookup faults other than not-found are returned as the error.
func (v *Validator) ValidateRegistration(ctx context.Context, input RegistrationInput, lookup UserLookup) (FieldErrors, error) {
	if lookup == nil {
		return FieldErrors{}, errors.New("[Validator ValidateRegistration] user lookup is required")
	}

	failed := v.failedTags(input)
	fe := NewFieldErrors()
	for _, field := range registrationFields {
		if tag, ok := failed[field]; ok {
			fe.Set(field, message(registrationMessages, field, tag))
			continue
		}
		if field != FieldEmail {
			continue
		}

		_, err := lookup.GetByEmail(ctx, input.Email)
		switch {
		case err == nil:
			fe.Set(FieldEmail, MsgEmailTaken)
		case errors.Is(err, apperrors.ErrNotFound):
		default:
			return FieldErrors{}, errors.Wrap(err, "[Validator ValidateRegistration] email lookup failed")
		}
	}
	return fe, nil
}

// failedTags returns the first failing tag per field, keyed by json name.
func (v *Validator) failedTags(input any) map[string]string {
	failed := make(map[string]string)

	err := v.validate.Struct(input)
	if err == nil {
		return failed
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return failed
	}
	for _, fieldErr := range validationErrs {
		if _, seen := failed[fieldErr.Field()]; !seen {
			failed[fieldErr.Field()] = fieldErr.Tag()
		}
	}
	return failed
}

func message(messages map[messageKey]string, field, tag string) string {
	if msg, ok := messages[messageKey{field, tag}]; ok {
		return msg
	}
	return msgFallbackInvalid
}
