package pipeline

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/scorelift/scorelift/pkg/errors"
)

// ConfigFile is the project config filename looked up in the working
// directory when --config is not given.
const ConfigFile = "scorelift.toml"

// Config is the TOML project configuration. Every field is optional;
// flags override config, config overrides built-in defaults.
//
// Example:
//
//	[pipeline]
//	start_measure = 20
//	interval = "-m2"
//	dpi = 300
//	skip_cover = true
//	jobs = 2
//	stagger_ms = 5000
//	formats = ["pdf", "midi"]
//
//	[engines]
//	oemer = "oemer"
//	musescore = "musescore3"
//	pdftoppm = "pdftoppm"
//
//	[cache]
//	backend = "file"       # file, redis, none
//	redis_url = ""
//
//	[runs]
//	backend = "file"       # file, mongo
//	mongo_uri = ""
type Config struct {
	Pipeline struct {
		StartMeasure int      `toml:"start_measure"`
		Interval     string   `toml:"interval"`
		DPI          int      `toml:"dpi"`
		SkipCover    *bool    `toml:"skip_cover"`
		Jobs         int      `toml:"jobs"`
		StaggerMS    int      `toml:"stagger_ms"`
		Formats      []string `toml:"formats"`
		LyricSheet   string   `toml:"lyric_sheet"`
	} `toml:"pipeline"`

	Engines struct {
		Oemer     string `toml:"oemer"`
		MuseScore string `toml:"musescore"`
		Pdftoppm  string `toml:"pdftoppm"`
	} `toml:"engines"`

	Cache struct {
		Backend  string `toml:"backend"`
		RedisURL string `toml:"redis_url"`
	} `toml:"cache"`

	Runs struct {
		Backend  string `toml:"backend"`
		MongoURI string `toml:"mongo_uri"`
	} `toml:"runs"`
}

// LoadConfig reads a TOML config file. When path is empty, ConfigFile in
// the working directory is used if present; a missing default file is
// not an error.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = ConfigFile
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			return &cfg, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load config %s", path)
	}
	return &cfg, nil
}

// ApplyTo fills zero-valued option fields from the config.
func (c *Config) ApplyTo(o *Options) {
	if o.StartMeasure == 0 {
		o.StartMeasure = c.Pipeline.StartMeasure
	}
	if o.Interval == "" {
		o.Interval = c.Pipeline.Interval
	}
	if o.DPI == 0 {
		o.DPI = c.Pipeline.DPI
	}
	if c.Pipeline.SkipCover != nil {
		o.SkipCover = *c.Pipeline.SkipCover
	}
	if o.Jobs == 0 {
		o.Jobs = c.Pipeline.Jobs
	}
	if o.StaggerMS == 0 {
		o.StaggerMS = c.Pipeline.StaggerMS
	}
	if len(o.Formats) == 0 {
		o.Formats = c.Pipeline.Formats
	}
	if o.LyricSheet == "" {
		o.LyricSheet = c.Pipeline.LyricSheet
	}
	if o.OemerBinary == "" {
		o.OemerBinary = c.Engines.Oemer
	}
	if o.MuseScoreBinary == "" {
		o.MuseScoreBinary = c.Engines.MuseScore
	}
	if o.PdftoppmBinary == "" {
		o.PdftoppmBinary = c.Engines.Pdftoppm
	}
}
