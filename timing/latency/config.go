package latency

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/sarchlab/sbsim/insts"
)

// ErrInvalidConfig is returned for missing or out-of-range configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	// MaxValue is the largest accepted unit count or latency.
	MaxValue = 4096

	// MaxTraceUnitLength is the longest accepted trace unit name.
	MaxTraceUnitLength = 5

	// DefaultQueueCapacity is the instruction queue depth.
	DefaultQueueCapacity = 16
)

// QueueFullPolicy selects what fetch does when the instruction queue is full.
type QueueFullPolicy string

const (
	// QueueFullAbort fails the run when fetch finds the queue full.
	QueueFullAbort QueueFullPolicy = "abort"
	// QueueFullStall skips fetch for the cycle and retries the next one.
	QueueFullStall QueueFullPolicy = "stall"
)

// Config holds functional unit counts and latencies for the scoreboard
// machine.
type Config struct {
	// Unit counts per class.
	LDUnits  uint16 `json:"ld_nr_units" yaml:"ld_nr_units"`
	STUnits  uint16 `json:"st_nr_units" yaml:"st_nr_units"`
	ADDUnits uint16 `json:"add_nr_units" yaml:"add_nr_units"`
	SUBUnits uint16 `json:"sub_nr_units" yaml:"sub_nr_units"`
	MULUnits uint16 `json:"mul_nr_units" yaml:"mul_nr_units"`
	DIVUnits uint16 `json:"div_nr_units" yaml:"div_nr_units"`

	// Execution latency in cycles per class. Read-operands consumes the
	// first cycle.
	LDDelay  uint16 `json:"ld_delay" yaml:"ld_delay"`
	STDelay  uint16 `json:"st_delay" yaml:"st_delay"`
	ADDDelay uint16 `json:"add_delay" yaml:"add_delay"`
	SUBDelay uint16 `json:"sub_delay" yaml:"sub_delay"`
	MULDelay uint16 `json:"mul_delay" yaml:"mul_delay"`
	DIVDelay uint16 `json:"div_delay" yaml:"div_delay"`

	// TraceUnit names the functional unit whose state is logged every
	// cycle it is busy, e.g. "ADD0" or "DIV1".
	TraceUnit string `json:"trace_unit" yaml:"trace_unit"`

	// QueueCapacity is the instruction queue depth. Default: 16.
	QueueCapacity int `json:"queue_capacity,omitempty" yaml:"queue_capacity,omitempty"`

	// QueueFullPolicy selects abort or stall when fetch finds the queue
	// full. Default: abort.
	QueueFullPolicy QueueFullPolicy `json:"queue_full_policy,omitempty" yaml:"queue_full_policy,omitempty"`
}

// DefaultConfig returns a Config with one unit per class and textbook
// floating-point latencies.
func DefaultConfig() *Config {
	return &Config{
		LDUnits:         1,
		STUnits:         1,
		ADDUnits:        2,
		SUBUnits:        1,
		MULUnits:        2,
		DIVUnits:        1,
		LDDelay:         1,
		STDelay:         1,
		ADDDelay:        2,
		SUBDelay:        2,
		MULDelay:        10,
		DIVDelay:        40,
		TraceUnit:       "ADD0",
		QueueCapacity:   DefaultQueueCapacity,
		QueueFullPolicy: QueueFullAbort,
	}
}

// textKeys lists the cfg text keys in the order they are reported missing.
var textKeys = []string{
	"add_nr_units", "sub_nr_units", "mul_nr_units", "div_nr_units",
	"ld_nr_units", "st_nr_units",
	"add_delay", "sub_delay", "mul_delay", "div_delay",
	"ld_delay", "st_delay",
	"trace_unit",
}

func (c *Config) numField(key string) *uint16 {
	switch key {
	case "add_nr_units":
		return &c.ADDUnits
	case "sub_nr_units":
		return &c.SUBUnits
	case "mul_nr_units":
		return &c.MULUnits
	case "div_nr_units":
		return &c.DIVUnits
	case "ld_nr_units":
		return &c.LDUnits
	case "st_nr_units":
		return &c.STUnits
	case "add_delay":
		return &c.ADDDelay
	case "sub_delay":
		return &c.SUBDelay
	case "mul_delay":
		return &c.MULDelay
	case "div_delay":
		return &c.DIVDelay
	case "ld_delay":
		return &c.LDDelay
	case "st_delay":
		return &c.STDelay
	default:
		return nil
	}
}

// ParseConfigText parses the line-oriented cfg format:
//
//	add_nr_units = 2
//	add_delay = 4
//	trace_unit = ADD1
//
// Spaces and tabs anywhere in a line are ignored. Every key must appear
// exactly once, and any other non-empty line is an error. The queue
// settings are not part of this format and keep their defaults.
func ParseConfigText(r io.Reader) (*Config, error) {
	config := DefaultConfig()
	seen := make(map[string]bool, len(textKeys))

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.Map(func(ch rune) rune {
			if ch == ' ' || ch == '\t' || ch == '\r' {
				return -1
			}
			return ch
		}, scanner.Text())
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok || seen[key] {
			return nil, fmt.Errorf("%w: line %d: unexpected %q", ErrInvalidConfig, lineNo, line)
		}

		if key == "trace_unit" {
			if value == "" || len(value) > MaxTraceUnitLength {
				return nil, fmt.Errorf("%w: line %d: bad trace_unit %q", ErrInvalidConfig, lineNo, value)
			}
			config.TraceUnit = value
			seen[key] = true
			continue
		}

		field := config.numField(key)
		if field == nil {
			return nil, fmt.Errorf("%w: line %d: unknown key %q", ErrInvalidConfig, lineNo, key)
		}
		n, err := strconv.ParseUint(value, 10, 16)
		if err != nil || n > MaxValue {
			return nil, fmt.Errorf("%w: line %d: bad value %q for %s", ErrInvalidConfig, lineNo, value, key)
		}
		*field = uint16(n)
		seen[key] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var missing []string
	for _, key := range textKeys {
		if !seen[key] {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}

	return config, nil
}

// LoadConfig loads a Config from a file. The format follows the extension:
// .json, .yaml/.yml, or the cfg text format for anything else.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		config = DefaultConfig()
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case ".yaml", ".yml":
		config = DefaultConfig()
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		config, err = ParseConfigText(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig writes a Config to a file, choosing JSON or YAML by extension.
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks unit counts, latencies, the trace unit name and the queue
// settings. It does not check that the trace unit exists; that needs the
// allocated units and happens when the pipeline is built.
func (c *Config) Validate() error {
	for _, op := range ExecOps {
		if n := c.Units(op); n > MaxValue {
			return fmt.Errorf("%w: %s unit count %d exceeds %d", ErrInvalidConfig, op, n, MaxValue)
		}
		d := c.Delay(op)
		if d == 0 {
			return fmt.Errorf("%w: %s latency must be > 0", ErrInvalidConfig, op)
		}
		if d > MaxValue {
			return fmt.Errorf("%w: %s latency %d exceeds %d", ErrInvalidConfig, op, d, MaxValue)
		}
	}
	if c.TraceUnit == "" || len(c.TraceUnit) > MaxTraceUnitLength {
		return fmt.Errorf("%w: bad trace_unit %q", ErrInvalidConfig, c.TraceUnit)
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("%w: queue_capacity must be >= 0", ErrInvalidConfig)
	}
	switch c.QueueFullPolicy {
	case "", QueueFullAbort, QueueFullStall:
	default:
		return fmt.Errorf("%w: unknown queue_full_policy %q", ErrInvalidConfig, c.QueueFullPolicy)
	}
	return nil
}

// Units returns the number of functional units serving op.
func (c *Config) Units(op insts.Op) int {
	switch op {
	case insts.OpLD:
		return int(c.LDUnits)
	case insts.OpST:
		return int(c.STUnits)
	case insts.OpADD:
		return int(c.ADDUnits)
	case insts.OpSUB:
		return int(c.SUBUnits)
	case insts.OpMULT:
		return int(c.MULUnits)
	case insts.OpDIV:
		return int(c.DIVUnits)
	default:
		return 0
	}
}

// Delay returns the configured latency of op.
func (c *Config) Delay(op insts.Op) uint64 {
	switch op {
	case insts.OpLD:
		return uint64(c.LDDelay)
	case insts.OpST:
		return uint64(c.STDelay)
	case insts.OpADD:
		return uint64(c.ADDDelay)
	case insts.OpSUB:
		return uint64(c.SUBDelay)
	case insts.OpMULT:
		return uint64(c.MULDelay)
	case insts.OpDIV:
		return uint64(c.DIVDelay)
	default:
		return 0
	}
}

// Capacity returns the instruction queue depth, applying the default.
func (c *Config) Capacity() int {
	if c.QueueCapacity <= 0 {
		return DefaultQueueCapacity
	}
	return c.QueueCapacity
}

// StallOnFullQueue reports whether fetch stalls instead of aborting.
func (c *Config) StallOnFullQueue() bool {
	return c.QueueFullPolicy == QueueFullStall
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
