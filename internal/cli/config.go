package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roomly/roomly/internal/calendar"
)

const defaultServerURL = "http://localhost:8080"

// CLIConfig is the per-user settings file, ~/.config/roomly/config.yaml.
type CLIConfig struct {
	ServerURL string `yaml:"server_url,omitempty"`
	Token     string `yaml:"token,omitempty"`
	Email     string `yaml:"email,omitempty"`
	TimeZone  string `yaml:"time_zone,omitempty"`
	WeekStart string `yaml:"week_start,omitempty"`
}

// settable maps the keys accepted by `roomly config set` to their field and
// a check for the value.
var settable = map[string]struct {
	field func(*CLIConfig) *string
	check func(string) error
}{
	"server_url": {func(c *CLIConfig) *string { return &c.ServerURL }, nil},
	"time_zone": {func(c *CLIConfig) *string { return &c.TimeZone }, func(v string) error {
		_, err := time.LoadLocation(v)
		return err
	}},
	"week_start": {func(c *CLIConfig) *string { return &c.WeekStart }, func(v string) error {
		_, err := calendar.ParseWeekStart(v)
		return err
	}},
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "roomly", "config.yaml"), nil
}

// loadConfig reads the CLI config from disk. A missing file is a zero config;
// unknown keys are an error.
func loadConfig() (CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return CLIConfig{}, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return CLIConfig{}, nil
	}
	if err != nil {
		return CLIConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg CLIConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return CLIConfig{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// saveConfig replaces the config file. The file holds a token, so it is
// written owner-only through a temp file and renamed into place.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// setting returns the environment variable env when set, else the config
// value, else def.
func setting(env string, pick func(CLIConfig) string, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	if cfg, err := loadConfig(); err == nil {
		if v := pick(cfg); v != "" {
			return v
		}
	}
	return def
}

func getServerURL() string {
	return setting("ROOMLY_SERVER_URL", func(c CLIConfig) string { return c.ServerURL }, defaultServerURL)
}

func getToken() string {
	return setting("ROOMLY_TOKEN", func(c CLIConfig) string { return c.Token }, "")
}

func getWeekStart() string {
	return setting("ROOMLY_WEEK_START", func(c CLIConfig) string { return c.WeekStart }, "sunday")
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change CLI settings",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the settings in effect",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				signedIn := "no"
				if getToken() != "" {
					signedIn = "yes"
				}
				tz := timezoneName()
				if tz == "" {
					tz = time.Local.String() + " (local)"
				}
				fmt.Printf("server_url:  %s\n", getServerURL())
				fmt.Printf("time_zone:   %s\n", tz)
				fmt.Printf("week_start:  %s\n", getWeekStart())
				fmt.Printf("signed in:   %s\n", signedIn)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Store a setting (server_url, time_zone, week_start)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigSet(args[0], args[1])
			},
		},
	)
	return cmd
}

func runConfigSet(key, value string) error {
	s, ok := settable[key]
	if !ok {
		keys := make([]string, 0, len(settable))
		for k := range settable {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown setting %q (one of %v)", key, keys)
	}
	if s.check != nil {
		if err := s.check(value); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	*s.field(&cfg) = value
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("✓ %s set to %s.\n", key, value)
	return nil
}
