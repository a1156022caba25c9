// Package config loads the dicegraph configuration.
//
// The file is CUE. It is unified with an embedded schema that supplies the
// defaults and the constraints, so a missing file and an empty file give the
// same configuration. A few settings can be overridden from the environment
// after the file is loaded.
package config

import (
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/caarlos0/env/v11"
)

// Schema is the CUE definition every configuration file is unified with.
// #Settings holds the constraints without defaults. A user file is checked
// against it first, since a failed default disjunction in #Config loses the
// position of the offending value.
const Schema = `
#Settings: {
	budgets?: {
		rounds?: int & >=1
		dice?:   int & >=1
	}
	db?:          string & !=""
	seed?:        int & >=0
	visualFaces?: [...int & >=1]
	aliases?: {[=~"^[A-Za-z_][A-Za-z0-9_]*$"]: string & !=""}
}

#Config: {
	budgets: {
		rounds: int & >=1 | *100
		dice:   int & >=1 | *1000
	}
	db:    string & !="" | *"dicegraph.db"
	seed?: int & >=0
	visualFaces: [...int & >=1] | *[4, 6, 8, 10, 12, 20, 100]
	aliases: [=~"^[A-Za-z_][A-Za-z0-9_]*$"]: string & !=""
}
`

// Config is the decoded configuration.
type Config struct {
	Budgets     Budgets           `json:"budgets"`
	DB          string            `json:"db"`
	Seed        *uint64           `json:"seed,omitempty"`
	VisualFaces []int             `json:"visualFaces"`
	Aliases     map[string]string `json:"aliases"`
}

// Budgets are the per-session limits.
type Budgets struct {
	Rounds int `json:"rounds"`
	Dice   int `json:"dice"`
}

// overrides are read from the environment after the file.
type overrides struct {
	DB   string  `env:"DICEGRAPH_DB"`
	Seed *uint64 `env:"DICEGRAPH_SEED"`
}

// Error is a configuration error with the CUE position it came from.
type Error struct {
	Message string
	Pos     token.Pos
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg, err := Parse(nil, "")
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}
	return cfg
}

// Load reads the CUE file at path, or the defaults when path is empty, and
// applies the environment overrides.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a configuration from CUE source without the environment
// overrides. filename is only used in error positions.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(Schema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err, "")
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))

	if len(data) > 0 {
		user := ctx.CompileBytes(data, cue.Filename(filename))
		if err := user.Err(); err != nil {
			return nil, formatCUEError(err, filename)
		}
		settings := schema.LookupPath(cue.ParsePath("#Settings")).Unify(user)
		if err := settings.Validate(); err != nil {
			return nil, formatCUEError(err, filename)
		}
		v = v.Unify(user)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, filename)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, formatCUEError(err, filename)
	}
	if cfg.Aliases == nil {
		cfg.Aliases = map[string]string{}
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	var o overrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if o.DB != "" {
		c.DB = o.DB
	}
	if o.Seed != nil {
		c.Seed = o.Seed
	}
	return nil
}

// Expand resolves an @name alias. Other expressions are returned as is.
func (c *Config) Expand(expr string) (string, error) {
	name, ok := strings.CutPrefix(strings.TrimSpace(expr), "@")
	if !ok {
		return expr, nil
	}
	src, ok := c.Aliases[name]
	if !ok {
		return "", fmt.Errorf("unknown alias %q", name)
	}
	return src, nil
}

// formatCUEError reports the first error of a CUE error list that points
// into filename, or the first error when none does.
func formatCUEError(err error, filename string) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}

	var fallback *Error
	for _, e := range errs {
		msg := e.Error()
		for _, pos := range cueerrors.Positions(e) {
			if filename != "" && pos.Filename() == filename {
				return &Error{Message: msg, Pos: pos}
			}
			if fallback == nil {
				fallback = &Error{Message: msg, Pos: pos}
			}
		}
	}
	if fallback != nil {
		return fallback
	}
	return &Error{Message: errs[0].Error()}
}
