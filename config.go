package trigger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	yaml "go.yaml.in/yaml/v3"
)

// Format names a configuration file syntax.
type Format string

// Supported configuration formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrUnsupportedFormat is returned for configuration files whose
// extension names no supported format.
var ErrUnsupportedFormat = errors.New("trigger: unsupported configuration format")

// File is the top-level layout of a trigger configuration file.
//
//	triggers:
//	  - name: nightly-report
//	    job: reports
//	    start: 2026-01-01T02:00:00Z
//	    repeat: indefinite
//	    interval: 24h
//	    misfire: reschedule-next-remaining-count
//	    exclude_cron: "* * * * * SAT,SUN"
type File struct {
	Triggers []Definition `yaml:"triggers" toml:"triggers"`
}

// Definition describes one trigger in a configuration file. Times use
// RFC 3339, intervals use time.ParseDuration syntax, and Repeat accepts
// a non-negative integer or "indefinite".
type Definition struct {
	Name        string `yaml:"name" toml:"name"`
	Job         string `yaml:"job" toml:"job"`
	Start       string `yaml:"start" toml:"start"`
	End         string `yaml:"end,omitempty" toml:"end,omitempty"`
	Repeat      string `yaml:"repeat" toml:"repeat"`
	Interval    string `yaml:"interval,omitempty" toml:"interval,omitempty"`
	Misfire     string `yaml:"misfire,omitempty" toml:"misfire,omitempty"`
	ExcludeCron string `yaml:"exclude_cron,omitempty" toml:"exclude_cron,omitempty"`
}

// LoadFile reads trigger definitions from path. The format follows the
// file extension: .yaml/.yml or .toml.
func LoadFile(path string) (*File, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trigger config: %w", err)
	}
	return ParseFile(data, format)
}

// ParseFile decodes trigger definitions from data.
func ParseFile(data []byte, format Format) (*File, error) {
	var f File
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("yaml unmarshal: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("toml unmarshal: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return &f, nil
}

func formatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Build turns the definition into a validated trigger. The key defaults
// to the definition's name. The returned calendar is nil unless
// ExcludeCron is set.
func (d Definition) Build(opts ...Option) (*SimpleTrigger, Calendar, error) {
	start, err := time.Parse(time.RFC3339, d.Start)
	if err != nil {
		return nil, nil, fmt.Errorf("trigger %q: start: %w", d.Name, err)
	}

	repeat, err := parseRepeat(d.Repeat)
	if err != nil {
		return nil, nil, fmt.Errorf("trigger %q: %w", d.Name, err)
	}

	var interval time.Duration
	if d.Interval != "" {
		if interval, err = time.ParseDuration(d.Interval); err != nil {
			return nil, nil, fmt.Errorf("trigger %q: interval: %w", d.Name, err)
		}
	}

	base := []Option{WithKey(d.Name)}
	if d.End != "" {
		end, err := time.Parse(time.RFC3339, d.End)
		if err != nil {
			return nil, nil, fmt.Errorf("trigger %q: end: %w", d.Name, err)
		}
		base = append(base, WithEndTime(end))
	}
	if d.Misfire != "" {
		instr, err := ParseMisfireInstruction(d.Misfire)
		if err != nil {
			return nil, nil, fmt.Errorf("trigger %q: %w", d.Name, err)
		}
		base = append(base, WithMisfireInstruction(instr))
	}

	t, err := New(start, repeat, interval, append(base, opts...)...)
	if err != nil {
		return nil, nil, fmt.Errorf("trigger %q: %w", d.Name, err)
	}

	var cal Calendar
	if d.ExcludeCron != "" {
		cc, err := NewCronCalendar(d.ExcludeCron, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("trigger %q: %w", d.Name, err)
		}
		cal = cc
	}
	return t, cal, nil
}

func parseRepeat(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0":
		return 0, nil
	case "indefinite", "forever", "-1":
		return RepeatIndefinitely, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, invalid(ErrNegativeRepeatCount, "repeat", s)
	}
	if err := validateRepeatCount(n); err != nil {
		return 0, err
	}
	return n, nil
}
