/*
Copyright 2026 The docrun Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// The job's configuration definitions.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultWaitTimeout bounds the local wait on the batch operation. The job
// may still succeed server-side after this elapses.
const DefaultWaitTimeout = 400 * time.Second

type Config struct {
	ProjectID    string `json:"project_id" yaml:"project_id"`
	Location     string `json:"location" yaml:"location"`
	ProcessorID  string `json:"processor_id" yaml:"processor_id"`
	InputPrefix  string `json:"gcs_input_prefix" yaml:"gcs_input_prefix"`
	OutputPrefix string `json:"gcs_output_prefix" yaml:"gcs_output_prefix"`
	FieldMask    string `json:"field_mask" yaml:"field_mask"`

	WaitTimeout    time.Duration `json:"wait_timeout" yaml:"wait_timeout"`
	MetricsAddress string        `json:"metrics_address" yaml:"metrics_address"`

	// Task identity injected by the job runner, used only in log lines.
	TaskIndex   int `json:"-" yaml:"-"`
	TaskAttempt int `json:"-" yaml:"-"`
}

// NewConfig returns a new Config with default values.
func NewConfig() *Config {
	return &Config{
		WaitTimeout:    DefaultWaitTimeout,
		MetricsAddress: "",
	}
}

// LoadFromEnv populates the config from environment variables. Called once at
// process start; nothing re-reads the environment afterwards.
func (c *Config) LoadFromEnv() {
	c.ProjectID = getEnv("PROJECT_ID", c.ProjectID)
	c.Location = getEnv("LOCATION", c.Location)
	c.ProcessorID = getEnv("PROCESSOR_ID", c.ProcessorID)
	c.InputPrefix = getEnv("GCS_INPUT_PREFIX", c.InputPrefix)
	c.OutputPrefix = getEnv("GCS_OUTPUT_PREFIX", c.OutputPrefix)
	c.FieldMask = getEnv("FIELD_MASK", c.FieldMask)
	c.WaitTimeout = getEnvAsDuration("WAIT_TIMEOUT", c.WaitTimeout)
	c.MetricsAddress = getEnv("METRICS_ADDRESS", c.MetricsAddress)
	c.TaskIndex = getEnvAsInt("CLOUD_RUN_TASK_INDEX", 0)
	c.TaskAttempt = getEnvAsInt("CLOUD_RUN_TASK_ATTEMPT", 0)
}

// LoadFromYAML overlays the configuration from a YAML file. Only keys present
// in the file are applied; wait_timeout takes Go duration syntax ("90s", "2m").
func (c *Config) LoadFromYAML(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	var overlay struct {
		ProjectID      string `yaml:"project_id"`
		Location       string `yaml:"location"`
		ProcessorID    string `yaml:"processor_id"`
		InputPrefix    string `yaml:"gcs_input_prefix"`
		OutputPrefix   string `yaml:"gcs_output_prefix"`
		FieldMask      string `yaml:"field_mask"`
		WaitTimeout    string `yaml:"wait_timeout"`
		MetricsAddress string `yaml:"metrics_address"`
	}
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&overlay); err != nil {
		return err
	}

	if overlay.ProjectID != "" {
		c.ProjectID = overlay.ProjectID
	}
	if overlay.Location != "" {
		c.Location = overlay.Location
	}
	if overlay.ProcessorID != "" {
		c.ProcessorID = overlay.ProcessorID
	}
	if overlay.InputPrefix != "" {
		c.InputPrefix = overlay.InputPrefix
	}
	if overlay.OutputPrefix != "" {
		c.OutputPrefix = overlay.OutputPrefix
	}
	if overlay.FieldMask != "" {
		c.FieldMask = overlay.FieldMask
	}
	if overlay.MetricsAddress != "" {
		c.MetricsAddress = overlay.MetricsAddress
	}
	if overlay.WaitTimeout != "" {
		d, err := time.ParseDuration(overlay.WaitTimeout)
		if err != nil {
			return fmt.Errorf("invalid wait_timeout: %w", err)
		}
		c.WaitTimeout = d
	}
	return nil
}

// Validate checks that every field the pipeline depends on is usable.
func (c *Config) Validate() error {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"project_id", c.ProjectID},
		{"location", c.Location},
		{"processor_id", c.ProcessorID},
		{"gcs_input_prefix", c.InputPrefix},
		{"gcs_output_prefix", c.OutputPrefix},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	// The service treats the output URI as a directory only when it ends
	// with a separator.
	if !strings.HasSuffix(c.OutputPrefix, "/") {
		return fmt.Errorf("gcs_output_prefix must end with a trailing slash: %q", c.OutputPrefix)
	}
	if c.WaitTimeout <= 0 {
		return fmt.Errorf("wait_timeout must be positive: %s", c.WaitTimeout)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// Bare integers are taken as seconds, matching the job runner's
		// older timeout knob.
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
