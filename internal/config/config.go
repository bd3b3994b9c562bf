package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Command names accepted by --command and as subcommands.
const (
	CommandGetActivities    = "get-activities"
	CommandDownloadActivity = "download-activity"
)

const dateLayout = "2006-01-02"

// Config holds the settings for a single invocation
type Config struct {
	Username string
	Password string
	Command  string

	Date       string
	ActivityID int64
	Output     string
	Format     string

	DatabasePath string
	RateLimit    time.Duration
	PageSize     int
	Verify       bool
	LogLevel     string
}

// SetDefaults registers the defaults Load relies on.
func SetDefaults(v *viper.Viper) {
	v.SetEnvPrefix("GARMINSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("format", "FIT")
	v.SetDefault("rate-limit", time.Second)
	v.SetDefault("page-size", 100)
	v.SetDefault("log-level", "warn")
}

// LoadConfig reads the invocation settings out of v, which is expected to
// have the command-line flags bound to it.
func LoadConfig(v *viper.Viper) (*Config, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Username:     v.GetString("username"),
		Password:     v.GetString("password"),
		Command:      v.GetString("command"),
		Date:         v.GetString("date"),
		ActivityID:   v.GetInt64("activity-id"),
		Output:       v.GetString("output"),
		Format:       v.GetString("format"),
		DatabasePath: v.GetString("db"),
		RateLimit:    v.GetDuration("rate-limit"),
		PageSize:     v.GetInt("page-size"),
		Verify:       v.GetBool("verify"),
		LogLevel:     v.GetString("log-level"),
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.RateLimit < 0 {
		cfg.RateLimit = 0
	}

	return cfg, nil
}

// Validate checks the conditional flag rules. It never touches the network.
func (c *Config) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("--username is required")
	}
	if c.Password == "" {
		return fmt.Errorf("--password is required")
	}

	switch c.Command {
	case CommandGetActivities:
		if c.Date == "" {
			return fmt.Errorf("--date is required for %s", CommandGetActivities)
		}
		if _, err := c.Day(); err != nil {
			return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", c.Date)
		}
	case CommandDownloadActivity:
		if c.ActivityID == 0 {
			return fmt.Errorf("--activity-id is required for %s", CommandDownloadActivity)
		}
	case "":
		return fmt.Errorf("--command is required (choose from %s, %s)", CommandGetActivities, CommandDownloadActivity)
	default:
		return fmt.Errorf("invalid --command %q (choose from %s, %s)", c.Command, CommandGetActivities, CommandDownloadActivity)
	}

	return nil
}

// Day parses Date. The result carries no zone information: Garmin reports
// local start times as bare wall-clock values, and the day window is compared
// against those.
func (c *Config) Day() (time.Time, error) {
	return time.Parse(dateLayout, c.Date)
}
