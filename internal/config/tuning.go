// Package config loads engine tuning parameters from JSON. Fields omitted
// from the file keep their defaults, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TuningConfig holds the tunable parameters of the compliance engine.
// Pointer fields distinguish "not set" from zero values; the Get* methods
// supply defaults for unset fields.
type TuningConfig struct {
	// Geometric verification
	HeadRatio          *float64 `json:"head_ratio,omitempty"`
	HelmetIoUThreshold *float64 `json:"helmet_iou_threshold,omitempty"`
	VestIoUThreshold   *float64 `json:"vest_iou_threshold,omitempty"`

	// Occlusion tolerance
	HistoryCapacity *int     `json:"history_capacity,omitempty"`
	MaxGapFrames    *int64   `json:"max_gap_frames,omitempty"`
	VisibilityFloor *float64 `json:"visibility_floor,omitempty"`
	VestRecovery    *bool    `json:"vest_recovery,omitempty"`
	HelmetRecovery  *bool    `json:"helmet_recovery,omitempty"`

	// Session
	Timezone  *string  `json:"timezone,omitempty"`
	FrameRate *float64 `json:"frame_rate,omitempty"` // frames per second, for frame->timestamp derivation
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *TuningConfig) Validate() error {
	if c.HeadRatio != nil {
		if *c.HeadRatio <= 0 || *c.HeadRatio > 1 {
			return fmt.Errorf("head_ratio must be in (0, 1], got %f", *c.HeadRatio)
		}
	}
	if c.HelmetIoUThreshold != nil {
		if *c.HelmetIoUThreshold < 0 || *c.HelmetIoUThreshold > 1 {
			return fmt.Errorf("helmet_iou_threshold must be in [0, 1], got %f", *c.HelmetIoUThreshold)
		}
	}
	if c.VestIoUThreshold != nil {
		if *c.VestIoUThreshold < 0 || *c.VestIoUThreshold > 1 {
			return fmt.Errorf("vest_iou_threshold must be in [0, 1], got %f", *c.VestIoUThreshold)
		}
	}
	if c.VisibilityFloor != nil {
		if *c.VisibilityFloor < 0 || *c.VisibilityFloor > 1 {
			return fmt.Errorf("visibility_floor must be in [0, 1], got %f", *c.VisibilityFloor)
		}
	}
	if c.HistoryCapacity != nil && *c.HistoryCapacity < 1 {
		return fmt.Errorf("history_capacity must be positive, got %d", *c.HistoryCapacity)
	}
	if c.MaxGapFrames != nil && *c.MaxGapFrames < 0 {
		return fmt.Errorf("max_gap_frames must be non-negative, got %d", *c.MaxGapFrames)
	}
	if c.FrameRate != nil && *c.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive, got %f", *c.FrameRate)
	}
	if c.Timezone != nil && *c.Timezone != "" {
		if _, err := time.LoadLocation(*c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", *c.Timezone, err)
		}
	}
	return nil
}

// GetHeadRatio returns the head_ratio value or the default.
func (c *TuningConfig) GetHeadRatio() float64 {
	if c.HeadRatio == nil {
		return 0.35
	}
	return *c.HeadRatio
}

// GetHelmetIoUThreshold returns the helmet_iou_threshold value or the default.
func (c *TuningConfig) GetHelmetIoUThreshold() float64 {
	if c.HelmetIoUThreshold == nil {
		return 0.10
	}
	return *c.HelmetIoUThreshold
}

// GetVestIoUThreshold returns the vest_iou_threshold value or the default.
func (c *TuningConfig) GetVestIoUThreshold() float64 {
	if c.VestIoUThreshold == nil {
		return 0.15
	}
	return *c.VestIoUThreshold
}

// GetHistoryCapacity returns the history_capacity value or the default.
func (c *TuningConfig) GetHistoryCapacity() int {
	if c.HistoryCapacity == nil {
		return 30
	}
	return *c.HistoryCapacity
}

// GetMaxGapFrames returns the max_gap_frames value or the default.
func (c *TuningConfig) GetMaxGapFrames() int64 {
	if c.MaxGapFrames == nil {
		return 30
	}
	return *c.MaxGapFrames
}

// GetVisibilityFloor returns the visibility_floor value or the default.
func (c *TuningConfig) GetVisibilityFloor() float64 {
	if c.VisibilityFloor == nil {
		return 0.7
	}
	return *c.VisibilityFloor
}

// GetVestRecovery returns the vest_recovery value or the default.
// Vest recovery is on by default: vests are frequently hidden by pallets,
// railings, and other foreground objects.
func (c *TuningConfig) GetVestRecovery() bool {
	if c.VestRecovery == nil {
		return true
	}
	return *c.VestRecovery
}

// GetHelmetRecovery returns the helmet_recovery value or the default.
// Off by default, matching the validated field behavior; enable it only
// after confirming per deployment that helmets benefit from recovery too.
func (c *TuningConfig) GetHelmetRecovery() bool {
	if c.HelmetRecovery == nil {
		return false
	}
	return *c.HelmetRecovery
}

// GetTimezone returns the configured rollover timezone, or time.Local.
func (c *TuningConfig) GetTimezone() *time.Location {
	if c.Timezone == nil || *c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(*c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// GetFrameRate returns the frame_rate value or the default.
func (c *TuningConfig) GetFrameRate() float64 {
	if c.FrameRate == nil {
		return 30.0
	}
	return *c.FrameRate
}
