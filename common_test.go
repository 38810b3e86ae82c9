package main

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_TOML(t *testing.T) {
	path := writeFile(t, ".tourneysync.toml", `
api_base_url = "https://api.example.com/"
verbosity_level = 4
log_format = "json"

[calendar]
provider = "caldav"

[caldav]
server_url = "https://dav.example.com"
username = "me"

[sources.bwf]
calendar_name = "Badminton"

[sources.fifa]
source_name = "FIFA"
public = false
`)

	config, err := loadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", config.APIBaseURL)
	assert.Equal(t, 4, config.VerbosityLevel)
	assert.Equal(t, "json", config.LogFormat)
	assert.Equal(t, "caldav", config.Calendar.Provider)
	assert.Equal(t, "UTC", config.Calendar.TimeZone)
	assert.Equal(t, "https://dav.example.com", config.CalDAV.ServerURL)
	assert.Equal(t, filepath.Dir(path), configDir)
	assert.Equal(t, []string{"bwf", "fifa"}, config.SourceIDs())

	bwf := config.Profile("bwf")
	assert.Equal(t, "Badminton", bwf.CalendarName)
	assert.Equal(t, "5", bwf.ColorID)
	assert.Equal(t, "BWF Tournament", bwf.DefaultCategory)
	assert.True(t, bwf.IsPublic())

	fifa := config.Profile("fifa")
	assert.Equal(t, "FIFA Tournaments", fifa.CalendarName)
	assert.Equal(t, "FIFA Tournament", fifa.DefaultCategory)
	assert.Equal(t, "1", fifa.ColorID)
	assert.False(t, fifa.IsPublic())
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "tourneysync.yaml", `
api_base_url: https://api.example.com
metrics_textfile: /tmp/tourneysync.prom
sources:
  atp:
    calendar_name: ATP Tour
    color_id: "9"
`)

	config, err := loadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "/tmp/tourneysync.prom", config.MetricsTextfile)
	assert.Equal(t, "google", config.Calendar.Provider)
	atp := config.Profile("atp")
	assert.Equal(t, "ATP Tour", atp.CalendarName)
	assert.Equal(t, "9", atp.ColorID)
	assert.Equal(t, "ATP", atp.SourceName)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"verbosity out of range", "verbosity_level = 9\n"},
		{"unknown provider", "[calendar]\nprovider = \"outlook\"\n"},
		{"bad url", "api_base_url = \"not a url\"\n"},
		{"unknown log format", "log_format = \"xml\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeFile(t, "bad.toml", tt.content))
			assert.ErrorContains(t, err, "invalid config")
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://env.example.com")
	t.Setenv("GOOGLE_CALENDAR_CREDENTIALS", "/etc/creds.json")
	t.Setenv("TOURNEYSYNC_VERBOSITY", "1")

	config, err := loadConfig(writeFile(t, "c.toml", "verbosity_level = 3\n"))

	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", config.APIBaseURL)
	assert.Equal(t, "/etc/creds.json", config.CredentialsFile)
	assert.Equal(t, 1, config.VerbosityLevel)
}

func TestProfile_UnknownSourceDefaults(t *testing.T) {
	p := defaultConfig().Profile("nba")

	assert.Equal(t, SourceProfile{
		ID:              "nba",
		CalendarName:    "NBA Tournaments",
		Description:     "NBA tournament calendar",
		ColorID:         "1",
		SourceName:      "NBA",
		DefaultCategory: "NBA Tournament",
	}, p)
}

func TestSetupLogging(t *testing.T) {
	defer log.SetLevel(log.GetLevel())

	tests := []struct {
		verbosity int
		want      log.Level
	}{
		{0, log.ErrorLevel},
		{1, log.WarnLevel},
		{2, log.InfoLevel},
		{3, log.InfoLevel},
		{4, log.DebugLevel},
		{5, log.TraceLevel},
	}
	for _, tt := range tests {
		setupLogging(&Config{VerbosityLevel: tt.verbosity, LogFormat: "text"})
		assert.Equal(t, tt.want, log.GetLevel(), "verbosity %d", tt.verbosity)
	}

	setupLogging(&Config{LogFormat: "json"})
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)
	log.SetFormatter(&log.TextFormatter{})
}
