package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// Validate checks cfg for values that would make eve misbehave.
func Validate(cfg EveConfig) ValidationErrors {
	var errs ValidationErrors

	if p := cfg.Server.Port; p < 0 || p > 65535 {
		errs.Add("server.port", "must be between 1 and 65535", p)
	}
	if cfg.Server.Timeout <= 0 {
		errs.Add("server.timeout", "must be positive", cfg.Server.Timeout)
	}

	for field, path := range map[string]string{
		"auth.passwordGrantPath":     cfg.Auth.PasswordGrantPath,
		"auth.clientCredentialsPath": cfg.Auth.ClientCredentialsPath,
	} {
		if !strings.HasPrefix(path, "/") {
			errs.Add(field, "must be an absolute path starting with '/'", path)
		}
	}
	if cfg.Auth.DefaultTokenLifetime <= 0 {
		errs.Add("auth.defaultTokenLifetime", "must be positive", cfg.Auth.DefaultTokenLifetime)
	}

	if strings.TrimSpace(cfg.Proxy.ListenAddress) == "" {
		errs.Add("proxy.listenAddress", "is required")
	}
	if cfg.Proxy.AuthRateLimit < 0 {
		errs.Add("proxy.authRateLimit", "must not be negative", cfg.Proxy.AuthRateLimit)
	}
	if cfg.Proxy.AuthRateLimit > 0 && cfg.Proxy.AuthBurst < 1 {
		errs.Add("proxy.authBurst", "must be at least 1 when rate limiting is enabled", cfg.Proxy.AuthBurst)
	}

	if err := ValidateOneOf("logging.level", cfg.Logging.Level, []string{"debug", "info", "warn", "error"}); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if err := ValidateOneOf("logging.format", cfg.Logging.Format, []string{"text", "json"}); err != nil {
		errs = append(errs, err.(ValidationError))
	}

	return errs
}
