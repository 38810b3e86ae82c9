package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	configFileName   = ".tourneysync.toml"
	databaseFileName = ".tourneysync.db"
	defaultAPIBase   = "https://the-static-api.vercel.app"
)

var validate = validator.New()

type Config struct {
	APIBaseURL      string                   `toml:"api_base_url" yaml:"api_base_url" validate:"required,url"`
	CredentialsFile string                   `toml:"credentials_file" yaml:"credentials_file"`
	ClientID        string                   `toml:"client_id" yaml:"client_id"`
	ClientSecret    string                   `toml:"client_secret" yaml:"client_secret"`
	VerbosityLevel  int                      `toml:"verbosity_level" yaml:"verbosity_level" validate:"min=0,max=5"`
	LogFormat       string                   `toml:"log_format" yaml:"log_format" validate:"oneof=text json"`
	MetricsTextfile string                   `toml:"metrics_textfile" yaml:"metrics_textfile"`
	Schedule        string                   `toml:"schedule" yaml:"schedule"`
	Listen          string                   `toml:"listen" yaml:"listen"`
	Database        string                   `toml:"database" yaml:"database"`
	Calendar        CalendarConfig           `toml:"calendar" yaml:"calendar"`
	CalDAV          CalDAVConfig             `toml:"caldav" yaml:"caldav"`
	Sources         map[string]SourceProfile `toml:"sources" yaml:"sources"`
}

type CalendarConfig struct {
	Provider string `toml:"provider" yaml:"provider" validate:"oneof=google caldav"`
	TimeZone string `toml:"time_zone" yaml:"time_zone"`
}

type CalDAVConfig struct {
	ServerURL string `toml:"server_url" yaml:"server_url"`
	Username  string `toml:"username" yaml:"username"`
	Password  string `toml:"password" yaml:"password"`
	HomeSet   string `toml:"home_set" yaml:"home_set"`
}

// SourceProfile holds the per-source calendar presentation settings.
type SourceProfile struct {
	ID              string `toml:"-" yaml:"-"`
	CalendarName    string `toml:"calendar_name" yaml:"calendar_name"`
	Description     string `toml:"description" yaml:"description"`
	ColorID         string `toml:"color_id" yaml:"color_id"`
	SourceName      string `toml:"source_name" yaml:"source_name"`
	DefaultCategory string `toml:"default_category" yaml:"default_category"`
	Public          *bool  `toml:"public" yaml:"public"`
}

func (p SourceProfile) IsPublic() bool {
	return p.Public == nil || *p.Public
}

var builtinProfiles = map[string]SourceProfile{
	"bwf": {
		CalendarName:    "BWF Badminton Tournaments",
		Description:     "Badminton World Federation tournament calendar",
		ColorID:         "5",
		SourceName:      "BWF",
		DefaultCategory: "BWF Tournament",
	},
}

var configDir string

func defaultConfig() *Config {
	c := &Config{VerbosityLevel: 3}
	c.Normalize()
	return c
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBase
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.CredentialsFile == "" {
		c.CredentialsFile = "credentials.json"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.Listen == "" {
		c.Listen = ":3001"
	}
	if c.Database == "" {
		c.Database = databaseFileName
	}
	if c.Calendar.Provider == "" {
		c.Calendar.Provider = "google"
	}
	if c.Calendar.TimeZone == "" {
		c.Calendar.TimeZone = "UTC"
	}
	if c.Sources == nil {
		c.Sources = map[string]SourceProfile{}
	}
}

// SourceIDs lists every source with a profile, built-in or configured.
func (c *Config) SourceIDs() []string {
	seen := map[string]bool{}
	for id := range builtinProfiles {
		seen[id] = true
	}
	for id := range c.Sources {
		seen[id] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Profile returns the profile for a source: configured fields override the
// built-in ones, and anything still blank is derived from the id.
func (c *Config) Profile(sourceID string) SourceProfile {
	p := builtinProfiles[sourceID]
	if configured, ok := c.Sources[sourceID]; ok {
		if configured.CalendarName != "" {
			p.CalendarName = configured.CalendarName
		}
		if configured.Description != "" {
			p.Description = configured.Description
		}
		if configured.ColorID != "" {
			p.ColorID = configured.ColorID
		}
		if configured.SourceName != "" {
			p.SourceName = configured.SourceName
		}
		if configured.DefaultCategory != "" {
			p.DefaultCategory = configured.DefaultCategory
		}
		if configured.Public != nil {
			p.Public = configured.Public
		}
	}

	upper := strings.ToUpper(sourceID)
	p.ID = sourceID
	if p.CalendarName == "" {
		p.CalendarName = upper + " Tournaments"
	}
	if p.Description == "" {
		p.Description = upper + " tournament calendar"
	}
	if p.ColorID == "" {
		p.ColorID = "1"
	}
	if p.SourceName == "" {
		p.SourceName = upper
	}
	if p.DefaultCategory == "" {
		p.DefaultCategory = p.SourceName + " Tournament"
	}
	return p
}

// loadConfig reads .env, then the config file. An explicit path must exist;
// otherwise the default file name is looked up in the current directory and
// then in $HOME/.config/tourneysync/. A missing default file yields defaults.
func loadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to load .env file")
	}

	var config *Config
	var err error
	if path != "" {
		config, err = readConfig(path)
		if err != nil {
			return nil, err
		}
		configDir = filepath.Dir(path)
	} else {
		config, err = readConfig(configFileName)
		if os.IsNotExist(err) {
			home := filepath.Join(os.Getenv("HOME"), ".config", "tourneysync")
			config, err = readConfig(filepath.Join(home, configFileName))
			if err == nil {
				configDir = home
			}
		}
		if os.IsNotExist(err) {
			config, err = defaultConfig(), nil
		}
		if err != nil {
			return nil, err
		}
	}

	applyEnv(config)
	config.Normalize()
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func readConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		err = toml.Unmarshal(data, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	config.Normalize()
	return &config, nil
}

func applyEnv(config *Config) {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		config.APIBaseURL = v
	}
	if v := os.Getenv("GOOGLE_CALENDAR_CREDENTIALS"); v != "" {
		config.CredentialsFile = v
	}
	if v := os.Getenv("TOURNEYSYNC_VERBOSITY"); v != "" {
		if level, err := strconv.Atoi(v); err == nil {
			config.VerbosityLevel = level
		}
	}
}

// setupLogging maps the 0-5 verbosity scale onto logrus levels:
// 0 errors only, 1 warnings, 2-3 progress, 4 per-event detail, 5 everything.
func setupLogging(config *Config) {
	switch {
	case config.VerbosityLevel <= 0:
		log.SetLevel(log.ErrorLevel)
	case config.VerbosityLevel == 1:
		log.SetLevel(log.WarnLevel)
	case config.VerbosityLevel <= 3:
		log.SetLevel(log.InfoLevel)
	case config.VerbosityLevel == 4:
		log.SetLevel(log.DebugLevel)
	default:
		log.SetLevel(log.TraceLevel)
	}

	if config.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stderr)
}

// openDB opens the cache database next to the config file, falling back to
// the current directory.
func openDB(filename string) (*sql.DB, error) {
	path := filename
	if configDir != "" && !filepath.IsAbs(filename) {
		path = filepath.Join(configDir, filename)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		db, err = sql.Open("sqlite3", filename)
		if err != nil {
			return nil, err
		}
	}
	if err := dbInit(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
