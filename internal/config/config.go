package config

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/pipemon/internal/errors"
	"github.com/Dicklesworthstone/pipemon/internal/model"
)

// Config carries the run options for pipemon.
type Config struct {
	Samples       int            `yaml:"samples"`
	TickMicros    int            `yaml:"tdelay"`
	Charts        model.ChartSet `yaml:"charts"`
	MaxSoftMisses int            `yaml:"max_soft_misses"`
	InProcess     bool           `yaml:"in_process"`
	ConfigFile    string         `yaml:"-"`
}

const (
	DefaultSamples       = 20
	DefaultTickMicros    = 500000
	DefaultMaxSoftMisses = 3

	envPrefix = "PIPEMON"
)

func Default() Config {
	return Config{
		Samples:       DefaultSamples,
		TickMicros:    DefaultTickMicros,
		MaxSoftMisses: DefaultMaxSoftMisses,
	}
}

// Interval is the tick as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.TickMicros) * time.Microsecond
}

// Validate reports the first setting a run cannot start with.
func (c Config) Validate() error {
	switch {
	case c.Samples <= 0:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Sample count must be positive, got %d", c.Samples), "Pass --samples=N with N > 0")
	case c.TickMicros <= 0:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Tick interval must be positive, got %d", c.TickMicros), "Pass --tdelay=MICROS with MICROS > 0")
	case c.MaxSoftMisses < 0:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Soft miss cap cannot be negative, got %d", c.MaxSoftMisses), "")
	case !c.Charts.Any():
		return errors.New(errors.ErrConfig, "No chart selected", "Pass --memory, --cpu or --cores")
	}
	return nil
}

// Args renders the settings a worker needs back into flags.
func (c Config) Args() []string {
	args := []string{
		"--samples=" + strconv.Itoa(c.Samples),
		"--tdelay=" + strconv.Itoa(c.TickMicros),
		"--max-soft-misses=" + strconv.Itoa(c.MaxSoftMisses),
	}
	if c.Charts.Memory {
		args = append(args, "--memory")
	}
	if c.Charts.CPU {
		args = append(args, "--cpu")
	}
	if c.Charts.Cores {
		args = append(args, "--cores")
	}
	return args
}

// YAML renders the resolved configuration.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// reporter writes "Invalid argument" diagnostics; inputs it reports are ignored.
type reporter struct{ w io.Writer }

func (r reporter) invalid(arg string) {
	fmt.Fprintf(r.w, "Invalid argument: %s\n", arg)
}

// FromFlags resolves the configuration from defaults, an optional YAML file
// (--config), PIPEMON_* environment variables, flags and positional
// arguments, in increasing precedence. Invalid or unknown inputs are reported
// to stderr and otherwise ignored.
func FromFlags(args []string, stderr io.Writer) Config {
	rep := reporter{w: stderr}
	flags, positional, file := split(args, rep)

	cfg := Default()
	cfg.ConfigFile = file
	fileCharts := fromViper(&cfg, rep)

	var chosen model.ChartSet
	fs := pflag.NewFlagSet("pipemon", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Var(&lenientInt{dst: &cfg.Samples, min: 1, rep: rep, name: "samples"}, "samples", "number of samples")
	fs.Var(&lenientInt{dst: &cfg.TickMicros, min: 1, rep: rep, name: "tdelay"}, "tdelay", "tick interval in microseconds")
	fs.Var(&lenientInt{dst: &cfg.MaxSoftMisses, min: 0, rep: rep, name: "max-soft-misses"}, "max-soft-misses", "interrupted reads tolerated")
	fs.BoolVar(&chosen.Memory, "memory", false, "draw the memory chart")
	fs.BoolVar(&chosen.CPU, "cpu", false, "draw the CPU chart")
	fs.BoolVar(&chosen.Cores, "cores", false, "draw the core topology")
	fs.BoolVar(&cfg.InProcess, "in-process", cfg.InProcess, "run workers as goroutines")
	if err := fs.Parse(flags); err != nil {
		rep.invalid(err.Error())
	}

	for i, p := range positional {
		if p == "" {
			continue
		}
		dst := &cfg.Samples
		if i == 1 {
			dst = &cfg.TickMicros
		}
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			rep.invalid(p)
			continue
		}
		*dst = n
	}

	switch {
	case chosen.Any():
		cfg.Charts = chosen
	case fileCharts.Any():
		cfg.Charts = fileCharts
	default:
		cfg.Charts = model.All()
	}
	return cfg
}

// known lists the flags pflag parses; the value says whether it takes an
// argument.
var known = map[string]bool{
	"samples":         true,
	"tdelay":          true,
	"max-soft-misses": true,
	"memory":          false,
	"cpu":             false,
	"cores":           false,
	"in-process":      false,
}

// split sorts args into known flags, positional values and the config file
// path. Only the first argument can be the sample count and only the second
// the tick; digits anywhere else, unknown flags and non-numeric values are
// reported.
func split(args []string, rep reporter) (flags []string, positional [2]string, file string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			if i < len(positional) && isDigits(arg) {
				positional[i] = arg
			} else {
				rep.invalid(arg)
			}
			continue
		}

		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name == "config" {
			switch {
			case hasValue:
				file = value
			case i+1 < len(args):
				i++
				file = args[i]
			default:
				rep.invalid(arg)
			}
			continue
		}

		takesValue, ok := known[name]
		if !ok || !strings.HasPrefix(arg, "--") {
			rep.invalid(arg)
			continue
		}
		flags = append(flags, arg)
		if takesValue && !hasValue {
			if i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			} else {
				rep.invalid(arg)
				flags = flags[:len(flags)-1]
			}
		}
	}
	return flags, positional, file
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// fromViper applies the config file and environment layers to cfg and
// returns the chart selection found in the file.
func fromViper(cfg *Config, rep reporter) model.ChartSet {
	v := viper.New()
	v.SetDefault("samples", cfg.Samples)
	v.SetDefault("tdelay", cfg.TickMicros)
	v.SetDefault("max_soft_misses", cfg.MaxSoftMisses)
	v.SetDefault("in_process", cfg.InProcess)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfg.ConfigFile != "" {
		v.SetConfigFile(cfg.ConfigFile)
		if filepath.Ext(cfg.ConfigFile) == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			rep.invalid("--config=" + cfg.ConfigFile)
		}
	}

	setInt := func(key string, dst *int, min int) {
		raw := v.GetString(key)
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < min {
			rep.invalid(fmt.Sprintf("%s=%s", key, raw))
			return
		}
		*dst = n
	}
	setInt("samples", &cfg.Samples, 1)
	setInt("tdelay", &cfg.TickMicros, 1)
	setInt("max_soft_misses", &cfg.MaxSoftMisses, 0)

	if raw := v.GetString("in_process"); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			cfg.InProcess = b
		} else {
			rep.invalid("in_process=" + raw)
		}
	}

	return model.ChartSet{
		Memory: v.GetBool("charts.memory"),
		CPU:    v.GetBool("charts.cpu"),
		Cores:  v.GetBool("charts.cores"),
	}
}

// lenientInt is a pflag.Value that reports bad input instead of failing the
// whole parse, leaving the previous value in place.
type lenientInt struct {
	dst  *int
	min  int
	rep  reporter
	name string
}

func (l *lenientInt) String() string {
	if l.dst == nil {
		return "0"
	}
	return strconv.Itoa(*l.dst)
}

func (l *lenientInt) Set(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < l.min {
		l.rep.invalid(fmt.Sprintf("--%s=%s", l.name, s))
		return nil
	}
	*l.dst = n
	return nil
}

func (l *lenientInt) Type() string { return "int" }
