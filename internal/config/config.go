package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/S0me0neR0man/clinicstash/internal/dberr"
	"github.com/S0me0neR0man/clinicstash/internal/freelist"
)

type Config struct {
	DataDir    string `yaml:"data_dir"`
	Restore    bool   `yaml:"restore"`   // load indexes from DataDir on startup
	AutoSave   bool   `yaml:"auto_save"` // save indexes after every change
	FreePolicy string `yaml:"free_policy"`
	Debug      bool   `yaml:"debug"`
}

func defaultConfig() *Config {
	return &Config{
		DataDir:    "db",
		Restore:    true,
		AutoSave:   true,
		FreePolicy: freelist.LIFO.String(),
	}
}

// NewConfig builds the configuration from defaults, the optional YAML file,
// environment and args, later sources win.
func NewConfig(args []string) (*Config, error) {
	const msg = "config:"

	def := defaultConfig()
	fs := flag.NewFlagSet("clinic", flag.ContinueOnError)
	path := fs.String("CONFIG", os.Getenv("CONFIG"), "yaml config file")
	d := fs.String("DATA_DIR", def.DataDir, "directory of data and index files")
	r := fs.Bool("RESTORE", def.Restore, "restore DB from disk on startup")
	a := fs.Bool("AUTO_SAVE", def.AutoSave, "save indexes after every change")
	p := fs.String("FREE_POLICY", def.FreePolicy, "free slot policy: lifo or first-fit")
	g := fs.Bool("DEBUG", def.Debug, "debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%s %w", msg, dberr.Validation("%v", err))
	}

	c := def
	if *path != "" {
		if err := c.loadFile(*path); err != nil {
			return nil, fmt.Errorf("%s %w", msg, err)
		}
	}
	if err := c.loadEnv(); err != nil {
		return nil, fmt.Errorf("%s %w", msg, err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "DATA_DIR":
			c.DataDir = *d
		case "RESTORE":
			c.Restore = *r
		case "AUTO_SAVE":
			c.AutoSave = *a
		case "FREE_POLICY":
			c.FreePolicy = *p
		case "DEBUG":
			c.Debug = *g
		}
	})

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s %w", msg, err)
	}
	return c, nil
}

// Policy the parsed free slot policy
func (c *Config) Policy() freelist.Policy {
	p, _ := freelist.ParsePolicy(c.FreePolicy)
	return p
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return dberr.Validation("empty data dir")
	}
	if _, err := freelist.ParsePolicy(c.FreePolicy); err != nil {
		return err
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return dberr.IO("read", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return dberr.Validation("%s: %v", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	if v, ok := os.LookupEnv("DATA_DIR"); ok {
		c.DataDir = v
	}
	if v, ok := os.LookupEnv("FREE_POLICY"); ok {
		c.FreePolicy = v
	}
	for name, dst := range map[string]*bool{
		"RESTORE":   &c.Restore,
		"AUTO_SAVE": &c.AutoSave,
		"DEBUG":     &c.Debug,
	} {
		v, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return dberr.Validation("%s=%q: %v", name, v, errors.Unwrap(err))
		}
		*dst = b
	}
	return nil
}
