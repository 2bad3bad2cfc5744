package config

// DefaultNoFallback are paths answered with 404 instead of the index document.
var DefaultNoFallback = []string{
	"api/**",
	"ws/**",
}

// DefaultImmutable are fingerprinted build outputs that never change in place.
var DefaultImmutable = []string{
	"assets/**",
	"js/*.*.js",
	"css/*.*.css",
	"img/*.*.*",
	"fonts/*.*.*",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:              5000,
		DistDir:           "dist",
		IndexFile:         "index.html",
		Compress:          true,
		MaxUploadMB:       32,
		SessionTTLMinutes: 120,
		NoFallback:        append([]string(nil), DefaultNoFallback...),
		Immutable:         append([]string(nil), DefaultImmutable...),
		CSV: CSVConfig{
			Timezone: "Local",
		},
	}
}
