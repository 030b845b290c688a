package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name           string
		modify         func(*MCPHostConfig)
		expectedFields []string
	}{
		{
			name:   "defaults are valid",
			modify: func(*MCPHostConfig) {},
		},
		{
			name: "bad gateway settings",
			modify: func(c *MCPHostConfig) {
				c.Gateway.Port = 0
				c.Gateway.BasePath = "api"
				c.Gateway.PublicURL = "not a url"
			},
			expectedFields: []string{"gateway.port", "gateway.basePath", "gateway.publicURL"},
		},
		{
			name: "bad server settings",
			modify: func(c *MCPHostConfig) {
				c.Servers.File = ""
				c.Servers.GracePeriod = 0
				c.Servers.ListTimeout = -1
			},
			expectedFields: []string{"servers.file", "servers.gracePeriod", "servers.listTimeout"},
		},
		{
			name: "unknown log level and orphan runner args",
			modify: func(c *MCPHostConfig) {
				c.LogLevel = "loud"
				c.Skills.RunnerArgs = []string{"run"}
			},
			expectedFields: []string{"logLevel", "skills.runnerCommand"},
		},
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
			assert.Equal(t, tt.expectedFields, fields)
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "no validation errors", errs.Error())

	errs.Add("gateway.port", "must be between 1 and 65535", 0)
	assert.Equal(t, "field 'gateway.port': must be between 1 and 65535", errs.Error())

	errs.Add("", "something else")
	assert.Equal(t, "validation failed: field 'gateway.port': must be between 1 and 65535; something else", errs.Error())
}
