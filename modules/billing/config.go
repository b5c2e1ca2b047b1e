package billing

import "time"

// Config holds billing webhook settings.
type Config struct {
	WebhookSecret string        `env:"LEMONSQUEEZY_WEBHOOK_SECRET,required"` // WebhookSecret is the shared secret webhook signatures are verified against.
	DedupTTL      time.Duration `env:"WEBHOOK_DEDUP_TTL" envDefault:"24h"`   // DedupTTL is how long processed event IDs are remembered.
}
