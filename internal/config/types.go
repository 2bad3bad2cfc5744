package config

// Config is the top-level csvstats configuration, corresponding to csvstats.yml.
type Config struct {
	Host              string    `yaml:"host" koanf:"host" validate:"omitempty,hostname|ip"`
	Port              int       `yaml:"port" koanf:"port" validate:"min=1,max=65535"`
	DistDir           string    `yaml:"dist_dir" koanf:"dist_dir" validate:"required"`
	IndexFile         string    `yaml:"index_file" koanf:"index_file" validate:"required"`
	Watch             bool      `yaml:"watch" koanf:"watch"`
	Compress          bool      `yaml:"compress" koanf:"compress"`
	AllowAllOrigins   bool      `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	MaxUploadMB       int       `yaml:"max_upload_mb" koanf:"max_upload_mb" validate:"min=1"`
	SessionTTLMinutes int       `yaml:"session_ttl_minutes" koanf:"session_ttl_minutes" validate:"min=1"`
	NoFallback        []string  `yaml:"no_fallback" koanf:"no_fallback" validate:"dive,required"`
	Immutable         []string  `yaml:"immutable" koanf:"immutable" validate:"dive,required"`
	CSV               CSVConfig `yaml:"csv" koanf:"csv"`
}

// CSVConfig controls how uploaded files are parsed.
type CSVConfig struct {
	// TimeColumn names the timestamp column. Empty means detect it.
	TimeColumn string `yaml:"time_column" koanf:"time_column"`
	// Layouts are extra time layouts tried before the built-in ones.
	Layouts []string `yaml:"layouts" koanf:"layouts" validate:"dive,required"`
	// Timezone is an IANA zone name used for timestamps without an offset.
	Timezone string `yaml:"timezone" koanf:"timezone"`
}
