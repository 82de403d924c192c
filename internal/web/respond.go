package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/desertthunder/notenexus/internal/server"
	"github.com/desertthunder/notenexus/internal/shared"
)

const maxBodyBytes = 1 << 20

// requestValidator checks decoded bodies and renders readable messages.
type requestValidator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func newRequestValidator() (*requestValidator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := validate.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		return nil, fmt.Errorf("failed to register nonblank validation: %w", err)
	}
	if err := validate.RegisterTranslation("nonblank", trans, func(ut ut.Translator) error {
		return ut.Add("nonblank", "{0} is a required field", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("nonblank", fe.Field())
		return t
	}); err != nil {
		return nil, fmt.Errorf("failed to register nonblank translation: %w", err)
	}

	return &requestValidator{validate: validate, trans: trans}, nil
}

// decode reads a JSON body into dst and validates it. Errors wrap [shared.ErrValidation].
func (v *requestValidator) decode(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: malformed JSON body", shared.ErrValidation)
	}

	if err := v.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("%w: %s", shared.ErrValidation, fieldErrs[0].Translate(v.trans))
		}
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return nil
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrDuplicate),
		errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// messageFor strips the sentinel prefix from err, leaving the caller-facing detail.
func messageFor(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{shared.ErrValidation, shared.ErrDuplicate, shared.ErrUserNotFound, shared.ErrNotFound} {
		if prefix := sentinel.Error() + ": "; strings.HasPrefix(msg, prefix) {
			return upperFirst(strings.TrimPrefix(msg, prefix))
		}
	}
	return upperFirst(msg)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// fail writes err as a JSON error. Server errors are logged and never leak details.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		server.WriteError(w, status, "Server error")
		return
	}

	if message == "" {
		message = messageFor(err)
	}
	server.WriteError(w, status, message)
}
