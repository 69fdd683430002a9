// Package procconfig holds the configuration data model: the immutable,
// value-typed description of a supervised program, and the top-level config
// file it is loaded from.
//
// The original Taskmaster this spec was distilled from parses a YAML document
// with serde_yaml and rejects unknown keys; this package follows that shape
// and strictness using gopkg.in/yaml.v3's KnownFields decoding.
package procconfig

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// RestartPolicy controls when a supervisor respawns a child after it exits.
type RestartPolicy int

const (
	RestartNever RestartPolicy = iota
	RestartAlways
	RestartOnFailure
)

func (p RestartPolicy) String() string {
	switch p {
	case RestartAlways:
		return "always"
	case RestartOnFailure:
		return "on_failure"
	default:
		return "never"
	}
}

func (p *RestartPolicy) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "", "never":
		*p = RestartNever
	case "always":
		*p = RestartAlways
	case "on_failure":
		*p = RestartOnFailure
	default:
		return fmt.Errorf("invalid restart policy %q", s)
	}
	return nil
}

// Umask is a 9-bit file mode creation mask, parsed from a string of octal
// digits (at most 0o777) per spec §3/§6.
type Umask struct {
	Value uint32
	Set   bool
}

func (u *Umask) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return errors.Wrapf(err, "invalid umask %q", s)
	}
	if parsed > 0o777 {
		return fmt.Errorf("umask %q out of range (must be <= 0o777)", s)
	}
	u.Value = uint32(parsed)
	u.Set = true
	return nil
}

// ProgramConfig is an immutable, value-typed description of one program.
// Equal-by-value: two ProgramConfig with identical fields describe the same
// desired state, which is exactly what the reload diff (internal/reload)
// compares.
type ProgramConfig struct {
	Command       string            `yaml:"command"`
	Args          []string          `yaml:"args"`
	Environment   map[string]string `yaml:"environment"`
	Replicas      int               `yaml:"replicas"`
	AtLaunch      bool              `yaml:"at_launch"`
	Restart       RestartPolicy     `yaml:"restart"`
	ExitCode      int               `yaml:"exit_code"`
	HealthyUptime float64           `yaml:"healthy_uptime"`
	Retries       int               `yaml:"retries"`
	Signal        StopSignal        `yaml:"-"`
	ExitTimeout   float64           `yaml:"exit_timeout"`
	Stdout        string            `yaml:"stdout"`
	Stderr        string            `yaml:"stderr"`
	Stdin         string            `yaml:"stdin"`
	Workdir       string            `yaml:"workdir"`
	Umask         Umask             `yaml:"umask"`
}

// rawProgramConfig mirrors ProgramConfig but keeps Signal as a plain string so
// UnmarshalYAML can apply defaults before delegating to ParseStopSignal.
type rawProgramConfig struct {
	Command       string            `yaml:"command"`
	Args          []string          `yaml:"args"`
	Environment   map[string]string `yaml:"environment"`
	Replicas      int               `yaml:"replicas"`
	AtLaunch      bool              `yaml:"at_launch"`
	Restart       RestartPolicy     `yaml:"restart"`
	ExitCode      int               `yaml:"exit_code"`
	HealthyUptime float64           `yaml:"healthy_uptime"`
	Retries       *int              `yaml:"retries"`
	Signal        string            `yaml:"signal"`
	ExitTimeout   *float64          `yaml:"exit_timeout"`
	Stdout        string            `yaml:"stdout"`
	Stderr        string            `yaml:"stderr"`
	Stdin         string            `yaml:"stdin"`
	Workdir       string            `yaml:"workdir"`
	Umask         Umask             `yaml:"umask"`
}

// allowedProgramKeys is the known-field set for a program body. yaml.Node.Decode
// builds its own decoder with KnownFields disabled, so the strictness the
// top-level Decoder.KnownFields(true) gives the rest of the document does not
// reach here on its own; check the mapping's keys by hand before decoding.
var allowedProgramKeys = map[string]struct{}{
	"command":        {},
	"args":           {},
	"environment":    {},
	"replicas":       {},
	"at_launch":      {},
	"restart":        {},
	"exit_code":      {},
	"healthy_uptime": {},
	"retries":        {},
	"signal":         {},
	"exit_timeout":   {},
	"stdout":         {},
	"stderr":         {},
	"stdin":          {},
	"workdir":        {},
	"umask":          {},
}

func checkKnownKeys(value *yaml.Node, allowed map[string]struct{}) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("program config must be a mapping, got %v", value.Kind)
	}
	for i := 0; i < len(value.Content); i += 2 {
		key := value.Content[i].Value
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("line %d: unknown field %q in program config", value.Content[i].Line, key)
		}
	}
	return nil
}

func (c *ProgramConfig) UnmarshalYAML(value *yaml.Node) error {
	if err := checkKnownKeys(value, allowedProgramKeys); err != nil {
		return err
	}

	var raw rawProgramConfig
	if err := value.Decode(&raw); err != nil {
		return err
	}

	*c = ProgramConfig{
		Command:       raw.Command,
		Args:          raw.Args,
		Environment:   raw.Environment,
		Replicas:      raw.Replicas,
		AtLaunch:      raw.AtLaunch,
		Restart:       raw.Restart,
		ExitCode:      raw.ExitCode,
		HealthyUptime: raw.HealthyUptime,
		Retries:       3,
		ExitTimeout:   10,
		Stdout:        raw.Stdout,
		Stderr:        raw.Stderr,
		Stdin:         raw.Stdin,
		Workdir:       raw.Workdir,
		Umask:         raw.Umask,
	}

	if c.Replicas == 0 {
		c.Replicas = 1
	}
	if raw.Retries != nil {
		c.Retries = *raw.Retries
	}
	if raw.ExitTimeout != nil {
		c.ExitTimeout = *raw.ExitTimeout
	}

	if raw.Signal == "" {
		c.Signal = SignalINT
	} else {
		sig, err := ParseStopSignal(raw.Signal)
		if err != nil {
			return err
		}
		c.Signal = sig
	}

	if c.Command == "" {
		return fmt.Errorf("program config is missing required field \"command\"")
	}
	if c.Replicas < 1 {
		return fmt.Errorf("replicas must be a positive integer, got %d", c.Replicas)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must be non-negative, got %d", c.Retries)
	}
	if c.HealthyUptime < 0 {
		return fmt.Errorf("healthy_uptime must be non-negative, got %v", c.HealthyUptime)
	}

	return nil
}

// Equal reports whether two ProgramConfig values describe the same desired
// state. Used by internal/reload to decide Modified vs. unchanged.
func (c ProgramConfig) Equal(other ProgramConfig) bool {
	if c.Command != other.Command ||
		c.Replicas != other.Replicas ||
		c.AtLaunch != other.AtLaunch ||
		c.Restart != other.Restart ||
		c.ExitCode != other.ExitCode ||
		c.HealthyUptime != other.HealthyUptime ||
		c.Retries != other.Retries ||
		c.Signal != other.Signal ||
		c.ExitTimeout != other.ExitTimeout ||
		c.Stdout != other.Stdout ||
		c.Stderr != other.Stderr ||
		c.Stdin != other.Stdin ||
		c.Workdir != other.Workdir ||
		c.Umask != other.Umask {
		return false
	}
	if len(c.Args) != len(other.Args) {
		return false
	}
	for i, a := range c.Args {
		if other.Args[i] != a {
			return false
		}
	}
	if len(c.Environment) != len(other.Environment) {
		return false
	}
	for k, v := range c.Environment {
		if other.Environment[k] != v {
			return false
		}
	}
	return true
}

// Config is the top-level configuration document: a set of named programs.
type Config struct {
	Programs map[string]ProgramConfig `yaml:"programs"`
}

// Load parses the configuration file at path, rejecting unknown keys.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "opening configuration file")
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a configuration document from r, rejecting unknown keys.
func Decode(r io.Reader) (Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parsing configuration")
	}
	return cfg, nil
}
