package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*EveConfig)
		fields []string
	}{
		{"defaults", func(*EveConfig) {}, nil},
		{"port out of range", func(c *EveConfig) { c.Server.Port = 70000 }, []string{"server.port"}},
		{"zero timeout", func(c *EveConfig) { c.Server.Timeout = 0 }, []string{"server.timeout"}},
		{"relative grant path", func(c *EveConfig) { c.Auth.PasswordGrantPath = "api/token" }, []string{"auth.passwordGrantPath"}},
		{"empty listen address", func(c *EveConfig) { c.Proxy.ListenAddress = " " }, []string{"proxy.listenAddress"}},
		{"rate without burst", func(c *EveConfig) { c.Proxy.AuthBurst = 0 }, []string{"proxy.authBurst"}},
		{"rate limiting disabled", func(c *EveConfig) { c.Proxy.AuthRateLimit = 0; c.Proxy.AuthBurst = 0 }, nil},
		{"unknown format", func(c *EveConfig) { c.Logging.Format = "xml" }, []string{"logging.format"}},
		{"several", func(c *EveConfig) {
			c.Server.Port = -1
			c.Logging.Level = "trace"
		}, []string{"server.port", "logging.level"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.modify(&cfg)

			errs := Validate(cfg)
			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.ElementsMatch(t, tt.fields, fields)
			assert.Equal(t, len(tt.fields) > 0, errs.HasErrors())
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "no validation errors", errs.Error())

	errs.Add("server.port", "must be between 1 and 65535", 0)
	assert.Equal(t, "field 'server.port': must be between 1 and 65535", errs.Error())

	errs.Add("", "something else")
	assert.Equal(t, "validation failed: field 'server.port': must be between 1 and 65535; something else", errs.Error())
}
