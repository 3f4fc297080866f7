package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
)

var bitratePattern = regexp.MustCompile(`^[0-9]+k$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateVoicevox(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateProgress(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.Input == "" {
		return errors.New("paths.input must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.Manifest == "" {
		return errors.New("paths.manifest must be set")
	}
	return nil
}

func (c *Config) validateVoicevox() error {
	parsed, err := url.Parse(c.Voicevox.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("voicevox.base_url must be an absolute http(s) URL, got %q", c.Voicevox.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("voicevox.base_url must use http or https, got %q", parsed.Scheme)
	}
	seen := make(map[int]struct{}, len(c.Voicevox.Speakers))
	for _, id := range c.Voicevox.Speakers {
		if id < 0 {
			return fmt.Errorf("voicevox.speakers must not contain negative ids, got %d", id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("voicevox.speakers contains duplicate id %d", id)
		}
		seen[id] = struct{}{}
	}
	if c.Voicevox.TimeoutSeconds < 0 {
		return errors.New("voicevox.timeout_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.Quality < 0 || c.Encoder.Quality > 9 {
		return errors.New("encoder.quality must be between 0 and 9")
	}
	if c.Encoder.Bitrate != "" && !bitratePattern.MatchString(c.Encoder.Bitrate) {
		return fmt.Errorf("encoder.bitrate must look like \"64k\", got %q", c.Encoder.Bitrate)
	}
	if c.Encoder.Channels != 1 && c.Encoder.Channels != 2 {
		return errors.New("encoder.channels must be 1 or 2")
	}
	if c.Encoder.SampleRate <= 0 {
		return errors.New("encoder.sample_rate must be positive")
	}
	return nil
}

func (c *Config) validateProgress() error {
	if c.Progress.BarWidth <= 0 {
		return errors.New("progress.bar_width must be positive")
	}
	if c.Progress.LogBucketPercent <= 0 || c.Progress.LogBucketPercent > 100 {
		return errors.New("progress.log_bucket_percent must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}
