package brandibble

import (
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Config holds the SDK construction parameters, loadable from environment
// variables (BRANDIBBLE_ prefix), flags, or YAML config files.
type Config struct {
	APIKey  string `usage:"API key sent with every request" flag:"api-key"`
	APIBase string `default:"https://www.brandibble.co/api/v1/" usage:"API base URL" flag:"api-base"`
	Origin  string `usage:"Origin header value, when the API requires one"`
	// RequestTimeout bounds each outbound request; zero disables the
	// timeout race entirely.
	RequestTimeout time.Duration `default:"0s" usage:"Per-request timeout (0 disables)" flag:"request-timeout"`
	Storage        StorageConfig
}

// StorageConfig selects and configures the persistence driver.
type StorageConfig struct {
	Driver      string `default:"memory" usage:"Storage driver: memory, file or postgres"`
	Path        string `usage:"Document path for the file driver"`
	DatabaseURL string `usage:"PostgreSQL connection URL for the postgres driver" flag:"database-url"`
}

// LoadConfig loads configuration from a .env file (best effort), environment
// variables, and YAML config files.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "BRANDIBBLE",
		Files:     []string{"brandibble.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}

	if cfg.APIKey == "" {
		return nil, errors.New("API key is required: set BRANDIBBLE_API_KEY")
	}
	return &cfg, nil
}
