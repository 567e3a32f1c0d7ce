package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Paths       PathsConfig       `yaml:"paths"`
	Detection   DetectionConfig   `yaml:"detection"`
	Clips       ClipsConfig       `yaml:"clips"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Publish     PublishConfig     `yaml:"publish"`
	Watch       WatchConfig       `yaml:"watch"`
	Google      GoogleConfig      `yaml:"google"`
}

// PathsConfig contains the directories the pipeline works across
type PathsConfig struct {
	StagingDirectory string `yaml:"staging_directory" env:"BIRDCAM_STAGING_DIR"`
	OutputDirectory  string `yaml:"output_directory" env:"BIRDCAM_OUTPUT_DIR"`
	ArchiveTarget    string `yaml:"archive_target" env:"BIRDCAM_ARCHIVE_TARGET"`
	CatalogFile      string `yaml:"catalog_file" env:"BIRDCAM_CATALOG_FILE"`
}

// DetectionConfig contains model paths and event-filter settings
type DetectionConfig struct {
	ModelFile           string   `yaml:"model_file" env:"BIRDCAM_MODEL_FILE"`
	ClassNamesFile      string   `yaml:"class_names_file"`
	SamplePeriodSeconds float64  `yaml:"sample_period_seconds"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold"`
	AllowedLabels       []string `yaml:"allowed_labels"`
	MinAspectRatio      float64  `yaml:"min_aspect_ratio"`
	MaxAspectRatio      float64  `yaml:"max_aspect_ratio"`
	SmallObjectPixels   int      `yaml:"small_object_pixels"`
}

// ClipsConfig contains interval-merge padding settings
type ClipsConfig struct {
	PreBufferSeconds  float64 `yaml:"pre_buffer_seconds"`
	PostBufferSeconds float64 `yaml:"post_buffer_seconds"`
	MinGapSeconds     float64 `yaml:"min_gap_seconds"`
}

// AggregationConfig contains combined-file settings
type AggregationConfig struct {
	CombinedSuffix   string  `yaml:"combined_suffix"`
	TrimFirstSeconds float64 `yaml:"trim_first_seconds"`
	SplitAMPM        bool    `yaml:"split_am_pm"`
	HourlyLagHours   int     `yaml:"hourly_lag_hours"`
}

// PublishConfig contains upload scheduling settings
type PublishConfig struct {
	Enabled            bool   `yaml:"enabled" env:"BIRDCAM_PUBLISH_ENABLED"`
	ReleaseHour        int    `yaml:"release_hour"`
	WindowStartHour    int    `yaml:"window_start_hour"`
	WindowEndHour      int    `yaml:"window_end_hour"`
	StaggerStepSeconds int    `yaml:"stagger_step_seconds"`
	TitlePrefix        string `yaml:"title_prefix"`
	PlaylistName       string `yaml:"playlist_name"`
}

// WatchConfig contains daemon loop settings
type WatchConfig struct {
	PollIntervalSeconds int    `yaml:"poll_interval_seconds" env:"BIRDCAM_POLL_INTERVAL"`
	ProcessHour         int    `yaml:"process_hour"`
	RetentionDays       int    `yaml:"retention_days"`
	AnnotateCaption     string `yaml:"annotate_caption"`
}

// GoogleConfig contains Google API settings
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file" env:"BIRDCAM_GOOGLE_CREDENTIALS"`
	TokenFile       string `yaml:"token_file" env:"BIRDCAM_GOOGLE_TOKEN"`
}

// Default returns the configuration the pipeline assumes when a setting is
// absent from the file.
func Default() *Config {
	return &Config{
		Detection: DetectionConfig{
			SamplePeriodSeconds: 30,
			ConfidenceThreshold: 0.3,
			AllowedLabels:       []string{"bird"},
			MinAspectRatio:      0.25,
			MaxAspectRatio:      4.0,
			SmallObjectPixels:   65,
		},
		Clips: ClipsConfig{
			PreBufferSeconds:  10,
			PostBufferSeconds: 10,
			MinGapSeconds:     10,
		},
		Aggregation: AggregationConfig{
			CombinedSuffix:   "birdcam",
			TrimFirstSeconds: 0,
			SplitAMPM:        false,
			HourlyLagHours:   2,
		},
		Publish: PublishConfig{
			ReleaseHour:        18,
			WindowStartHour:    5,
			WindowEndHour:      18,
			StaggerStepSeconds: 60,
		},
		Watch: WatchConfig{
			PollIntervalSeconds: 300,
			ProcessHour:         3,
			RetentionDays:       30,
		},
	}
}

// Load reads the YAML configuration, fills unset values with defaults, then
// applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Paths.StagingDirectory == "" {
		return fmt.Errorf("paths.staging_directory is required")
	}
	if c.Paths.OutputDirectory == "" {
		return fmt.Errorf("paths.output_directory is required")
	}
	if c.Paths.CatalogFile == "" {
		return fmt.Errorf("paths.catalog_file is required")
	}
	if c.Detection.SamplePeriodSeconds <= 0 {
		return fmt.Errorf("detection.sample_period_seconds must be positive")
	}
	if c.Watch.PollIntervalSeconds <= 0 {
		return fmt.Errorf("watch.poll_interval_seconds must be positive")
	}
	if c.Watch.ProcessHour < 0 || c.Watch.ProcessHour > 23 {
		return fmt.Errorf("watch.process_hour must be in [0,23]")
	}
	return nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
