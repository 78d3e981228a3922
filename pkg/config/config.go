package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for igharvest
type Config struct {
	// Browser connection
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Run budgets
	Collection CollectionConfig `yaml:"collection" json:"collection"`

	// Waits, settles and jitter
	Timing TimingConfig `yaml:"timing" json:"timing"`

	// Carousel walking and classification
	Carousel CarouselConfig `yaml:"carousel" json:"carousel"`

	// Media acceptance filters
	Media MediaConfig `yaml:"media" json:"media"`

	// Export settings
	Export ExportConfig `yaml:"export" json:"export"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BrowserConfig controls how the browser is launched or attached
type BrowserConfig struct {
	// ControlURL attaches to an already running Chrome (--remote-debugging-port) so the
	// user's own logged-in session is reused. Empty launches a new browser.
	ControlURL        string        `yaml:"control_url" json:"control_url"`
	Headless          bool          `yaml:"headless" json:"headless"`
	Stealth           bool          `yaml:"stealth" json:"stealth"`
	UserDataDir       string        `yaml:"user_data_dir" json:"user_data_dir"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
}

// CollectionConfig holds the run-level budgets
type CollectionConfig struct {
	Mode             string `yaml:"mode" json:"mode"`
	TargetPosts      int    `yaml:"target_posts" json:"target_posts"`
	SmartTargetPosts int    `yaml:"smart_target_posts" json:"smart_target_posts"`
	MaxScrolls       int    `yaml:"max_scrolls" json:"max_scrolls"`
	NoGrowthLimit    int    `yaml:"no_growth_limit" json:"no_growth_limit"`
	MaxPosts         int    `yaml:"max_posts" json:"max_posts"`
	MaxMedia         int    `yaml:"max_media" json:"max_media"`
	SmartPreFilter   bool   `yaml:"smart_pre_filter" json:"smart_pre_filter"`
	QuickMaxScrolls  int    `yaml:"quick_max_scrolls" json:"quick_max_scrolls"`
	QuickMediaCap    int    `yaml:"quick_media_cap" json:"quick_media_cap"`
	ActionsPerMinute int    `yaml:"actions_per_minute" json:"actions_per_minute"`
}

// TimingConfig holds delays; every wait in a run is bounded by one of these
type TimingConfig struct {
	OpenTimeout    time.Duration `yaml:"open_timeout" json:"open_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval" json:"poll_interval"`
	OpenSettle     time.Duration `yaml:"open_settle" json:"open_settle"`
	CloseSettle    time.Duration `yaml:"close_settle" json:"close_settle"`
	CloseAttempts  int           `yaml:"close_attempts" json:"close_attempts"`
	StepSettle     time.Duration `yaml:"step_settle" json:"step_settle"`
	ScrollDelayMin time.Duration `yaml:"scroll_delay_min" json:"scroll_delay_min"`
	ScrollDelayMax time.Duration `yaml:"scroll_delay_max" json:"scroll_delay_max"`
	PostDelayMin   time.Duration `yaml:"post_delay_min" json:"post_delay_min"`
	PostDelayMax   time.Duration `yaml:"post_delay_max" json:"post_delay_max"`
	QuickDelayMin  time.Duration `yaml:"quick_delay_min" json:"quick_delay_min"`
	QuickDelayMax  time.Duration `yaml:"quick_delay_max" json:"quick_delay_max"`
}

// CarouselConfig tunes the walker and the classifier ensemble
type CarouselConfig struct {
	MaxAdvances    int      `yaml:"max_advances" json:"max_advances"`
	StallLimit     int      `yaml:"stall_limit" json:"stall_limit"`
	ControlMaxSize float64  `yaml:"control_max_size" json:"control_max_size"`
	EdgeMargin     float64  `yaml:"edge_margin" json:"edge_margin"`
	Signals        []string `yaml:"signals" json:"signals"`
}

// MediaConfig holds the collector's acceptance filters
type MediaConfig struct {
	MinDimension      float64  `yaml:"min_dimension" json:"min_dimension"`
	QuickMinDimension float64  `yaml:"quick_min_dimension" json:"quick_min_dimension"`
	DenyPatterns      []string `yaml:"deny_patterns" json:"deny_patterns"`
	AllowedHosts      []string `yaml:"allowed_hosts" json:"allowed_hosts"`
}

// ExportConfig holds export and media fetch settings
type ExportConfig struct {
	Formats           []string      `yaml:"formats" json:"formats"`
	OutputDir         string        `yaml:"output_dir" json:"output_dir"`
	NamePrefix        string        `yaml:"name_prefix" json:"name_prefix"`
	Compression       string        `yaml:"compression" json:"compression"`
	Concurrency       int           `yaml:"concurrency" json:"concurrency"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxAttempts       int           `yaml:"max_attempts" json:"max_attempts"`
	Referer           string        `yaml:"referer" json:"referer"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	OnComplete       bool   `yaml:"on_complete" json:"on_complete"`
	OnError          bool   `yaml:"on_error" json:"on_error"`
	NotificationType string `yaml:"notification_type" json:"notification_type"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
	// Console writes human-readable lines to stderr. Turned off while the
	// full-screen view owns the terminal.
	Console bool `yaml:"console" json:"console"`
}

// DefaultSignals is the full classifier ensemble
var DefaultSignals = []string{"marker", "paired-controls", "multi-media", "pagination", "slide-track"}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:          false,
			Stealth:           true,
			NavigationTimeout: 30 * time.Second,
		},
		Collection: CollectionConfig{
			Mode:             "smart",
			TargetPosts:      500,
			SmartTargetPosts: 100,
			MaxScrolls:       50,
			NoGrowthLimit:    2,
			MaxPosts:         50,
			MaxMedia:         200,
			SmartPreFilter:   true,
			QuickMaxScrolls:  30,
			QuickMediaCap:    1000,
			ActionsPerMinute: 20,
		},
		Timing: TimingConfig{
			OpenTimeout:    8 * time.Second,
			PollInterval:   100 * time.Millisecond,
			OpenSettle:     500 * time.Millisecond,
			CloseSettle:    500 * time.Millisecond,
			CloseAttempts:  5,
			StepSettle:     800 * time.Millisecond,
			ScrollDelayMin: 1500 * time.Millisecond,
			ScrollDelayMax: 2500 * time.Millisecond,
			PostDelayMin:   2 * time.Second,
			PostDelayMax:   4 * time.Second,
			QuickDelayMin:  800 * time.Millisecond,
			QuickDelayMax:  1500 * time.Millisecond,
		},
		Carousel: CarouselConfig{
			MaxAdvances:    15,
			StallLimit:     2,
			ControlMaxSize: 100,
			EdgeMargin:     50,
			Signals:        append([]string(nil), DefaultSignals...),
		},
		Media: MediaConfig{
			MinDimension:      150,
			QuickMinDimension: 100,
			DenyPatterns:      []string{"profile_pic", "/s150x150/", "avatar", "t51.2885-19"},
			AllowedHosts:      []string{"instagram", "fbcdn"},
		},
		Export: ExportConfig{
			Formats:           []string{"text"},
			OutputDir:         "./exports",
			NamePrefix:        "instagram-images",
			Compression:       "deflate",
			Concurrency:       5,
			FetchTimeout:      30 * time.Second,
			RequestsPerMinute: 120,
			MaxAttempts:       3,
			Referer:           "https://www.instagram.com/",
			UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		Notifications: NotificationConfig{
			Enabled:          true,
			OnComplete:       true,
			OnError:          true,
			NotificationType: "terminal",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// LoadFromEnv loads configuration from IGHARVEST_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("IGHARVEST_CONTROL_URL"); v != "" {
		c.Browser.ControlURL = v
	}
	if v := os.Getenv("IGHARVEST_HEADLESS"); v != "" {
		c.Browser.Headless = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("IGHARVEST_USER_DATA_DIR"); v != "" {
		c.Browser.UserDataDir = v
	}
	if v := os.Getenv("IGHARVEST_MODE"); v != "" {
		c.Collection.Mode = v
	}
	envInt("IGHARVEST_MAX_POSTS", &c.Collection.MaxPosts, &errs)
	envInt("IGHARVEST_MAX_MEDIA", &c.Collection.MaxMedia, &errs)
	envInt("IGHARVEST_TARGET_POSTS", &c.Collection.TargetPosts, &errs)
	envInt("IGHARVEST_CONCURRENCY", &c.Export.Concurrency, &errs)
	envDuration("IGHARVEST_OPEN_TIMEOUT", &c.Timing.OpenTimeout, &errs)

	if v := os.Getenv("IGHARVEST_OUTPUT_DIR"); v != "" {
		c.Export.OutputDir = v
	}
	if v := os.Getenv("IGHARVEST_COMPRESSION"); v != "" {
		c.Export.Compression = v
	}
	if v := os.Getenv("IGHARVEST_NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("IGHARVEST_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return errors.Join(errs...)
}

func envInt(key string, dst *int, errs *[]error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	if n > 0 {
		*dst = n
	}
}

func envDuration(key string, dst *time.Duration, errs *[]error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// Locate returns the file Load reads for path, or "" when only defaults apply
func Locate(path string) string {
	if path != "" {
		return path
	}
	return (&Config{}).findConfigFile()
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".igharvest.yaml",
		".igharvest.yml",
		filepath.Join(home, ".config", "igharvest", "config.yaml"),
		filepath.Join(home, ".config", "igharvest", "config.yml"),
		filepath.Join(home, ".igharvest.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	switch c.Collection.Mode {
	case "smart", "full", "quick":
	default:
		errs = append(errs, fmt.Errorf("invalid mode %q (want smart, full or quick)", c.Collection.Mode))
	}
	if c.Collection.TargetPosts <= 0 || c.Collection.SmartTargetPosts <= 0 {
		errs = append(errs, errors.New("target posts must be positive"))
	}
	if c.Collection.MaxPosts <= 0 {
		errs = append(errs, errors.New("max posts must be positive"))
	}
	if c.Collection.MaxMedia <= 0 {
		errs = append(errs, errors.New("max media must be positive"))
	}
	if c.Collection.MaxScrolls <= 0 || c.Collection.QuickMaxScrolls <= 0 {
		errs = append(errs, errors.New("scroll limits must be positive"))
	}
	if c.Collection.NoGrowthLimit <= 0 {
		errs = append(errs, errors.New("no-growth limit must be positive"))
	}
	if c.Collection.ActionsPerMinute < 0 {
		errs = append(errs, errors.New("actions per minute cannot be negative"))
	}

	if c.Timing.OpenTimeout <= 0 {
		errs = append(errs, errors.New("open timeout must be positive"))
	}
	if c.Timing.PollInterval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	if c.Timing.CloseAttempts <= 0 {
		errs = append(errs, errors.New("close attempts must be positive"))
	}
	if c.Timing.PostDelayMax < c.Timing.PostDelayMin {
		errs = append(errs, errors.New("post delay max is below min"))
	}
	if c.Timing.ScrollDelayMax < c.Timing.ScrollDelayMin {
		errs = append(errs, errors.New("scroll delay max is below min"))
	}

	if c.Carousel.MaxAdvances <= 0 {
		errs = append(errs, errors.New("max advances must be positive"))
	}
	if c.Carousel.StallLimit <= 0 {
		errs = append(errs, errors.New("stall limit must be positive"))
	}
	validSignals := map[string]bool{}
	for _, s := range DefaultSignals {
		validSignals[s] = true
	}
	for _, s := range c.Carousel.Signals {
		if !validSignals[s] {
			errs = append(errs, fmt.Errorf("unknown carousel signal %q", s))
		}
	}

	if c.Media.MinDimension < 0 || c.Media.QuickMinDimension < 0 {
		errs = append(errs, errors.New("min dimension cannot be negative"))
	}

	for _, f := range c.Export.Formats {
		if f != "text" && f != "archive" {
			errs = append(errs, fmt.Errorf("invalid export format %q", f))
		}
	}
	if c.Export.Compression != "deflate" && c.Export.Compression != "zstd" && c.Export.Compression != "store" {
		errs = append(errs, fmt.Errorf("invalid compression %q", c.Export.Compression))
	}
	if c.Export.Concurrency <= 0 {
		errs = append(errs, errors.New("export concurrency must be positive"))
	}
	if c.Export.Concurrency > 10 {
		errs = append(errs, errors.New("export concurrency should not exceed 10"))
	}
	if c.Export.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Export.FetchTimeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	validNotifTypes := map[string]bool{
		"terminal": true, "desktop": true, "none": true,
	}
	if !validNotifTypes[strings.ToLower(c.Notifications.NotificationType)] {
		errs = append(errs, errors.New("invalid notification type"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["mode"].(string); ok && v != "" {
		c.Collection.Mode = v
	}
	if v, ok := flags["control-url"].(string); ok && v != "" {
		c.Browser.ControlURL = v
	}
	if v, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = v
	}
	if v, ok := flags["max-posts"].(int); ok && v > 0 {
		c.Collection.MaxPosts = v
	}
	if v, ok := flags["max-media"].(int); ok && v > 0 {
		c.Collection.MaxMedia = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Export.OutputDir = v
	}
	if v, ok := flags["export"].([]string); ok && len(v) > 0 {
		c.Export.Formats = v
	}
	if v, ok := flags["compression"].(string); ok && v != "" {
		c.Export.Compression = v
	}
	if v, ok := flags["concurrency"].(int); ok && v > 0 {
		c.Export.Concurrency = v
	}
	if v, ok := flags["enabled"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igharvest.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
