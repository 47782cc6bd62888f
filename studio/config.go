package studio

import "time"

// Validation bounds and the per-generation price. These are product
// constants, not deployment knobs.
const (
	MaxPromptLength  = 1000
	MaxImages        = 10
	MaxImageBytes    = 5 * 1024 * 1024
	GenerationCost   = 1
	MaxListedRecords = 50
)

// Config is the env-tagged studio configuration.
type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY,required"`

	PrimaryModel  string `env:"STUDIO_PRIMARY_MODEL" envDefault:"gemini-3-pro-image-preview"`
	FallbackModel string `env:"STUDIO_FALLBACK_MODEL" envDefault:"gemini-2.5-flash-image"`

	// GenerationTimeout caps one request across all backends and retries.
	GenerationTimeout time.Duration `env:"STUDIO_GENERATION_TIMEOUT" envDefault:"60s"`
	RetryBackoff      time.Duration `env:"STUDIO_RETRY_BACKOFF" envDefault:"1s"`
}
