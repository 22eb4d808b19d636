package config_test

import (
	"testing"
	"time"

	"otasync/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://app.stayflexi.com", cfg.Stayflexi.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Stayflexi.NavigateTimeout)
	assert.Equal(t, 3, cfg.Stayflexi.RetryAttempts)
	assert.True(t, cfg.Stayflexi.Headless)
	assert.Len(t, cfg.Properties, 15)
	assert.Equal(t, "30357", cfg.Properties["EdenBeachResort"])
}

func TestLoad_PropertiesFromEnv(t *testing.T) {
	t.Setenv("OTASYNC_PROPERTIES", "Sea View:100,Hill Top:200")
	t.Setenv("OTASYNC_STAYFLEXI_EMAIL", "ops@example.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.Properties{"Sea View": "100", "Hill Top": "200"}, cfg.Properties)
	assert.Equal(t, "ops@example.com", cfg.Stayflexi.Email)
}

func TestProperties(t *testing.T) {
	props := config.Properties{"Sea View": "100", "Hill Top": "200"}

	tests := []struct {
		name string
		id   string
		want string
	}{
		{name: "known id", id: "200", want: "Hill Top"},
		{name: "unknown id", id: "999", want: config.UnknownProperty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, props.Name(tt.id))
		})
	}

	id, ok := props.ID("sea view")
	assert.True(t, ok)
	assert.Equal(t, "100", id)

	id, ok = props.ID("200")
	assert.True(t, ok)
	assert.Equal(t, "200", id)

	_, ok = props.ID("nowhere")
	assert.False(t, ok)

	assert.Equal(t, []config.Property{{Name: "Sea View", ID: "100"}, {Name: "Hill Top", ID: "200"}}, props.Sorted())
}
