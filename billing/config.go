package billing

import "time"

// Config is the env-tagged billing configuration. All provider values are
// required at process start; a missing one prevents the routes from being
// wired at all rather than failing per request.
type Config struct {
	PaddleAPIKey        string `env:"PADDLE_API_KEY,required"`
	PaddleWebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	PaddleEnvironment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`

	ProPriceID   string `env:"PADDLE_PRO_PRICE_ID,required"`
	UltraPriceID string `env:"PADDLE_ULTRA_PRICE_ID,required"`

	CheckoutSuccessURL string `env:"CHECKOUT_SUCCESS_URL,required"`

	// PlanChangeLockTTL bounds the per-user advisory lock held across a plan
	// change, so a crashed request cannot wedge the user forever.
	PlanChangeLockTTL time.Duration `env:"PLAN_CHANGE_LOCK_TTL" envDefault:"30s"`
}
