package config

import "time"

type Limits struct {
	TranslationCacheSize int             `yaml:"translation_cache_size" validate:"required,min=10,max=10000"`
	ChunkThreshold       int             `yaml:"chunk_threshold" validate:"required,min=100,max=10000"`
	SegmentBatchSize     int             `yaml:"segment_batch_size" validate:"required,min=1,max=50"`
	SpeechTextLimit      int             `yaml:"speech_text_limit" validate:"required,min=100,max=5000"`
	MaxRetries           int             `yaml:"max_retries" validate:"min=0,max=10"`
	RefreshTTL           time.Duration   `yaml:"refresh_ttl" validate:"required,min=1m,max=24h"`
	RateLimit            RateLimitConfig `yaml:"rate_limit" validate:"required"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" validate:"required,min=1,max=1000"`
	BurstSize         int `yaml:"burst_size" validate:"required,min=1,max=100"`
}

func DefaultLimits() Limits {
	return Limits{
		TranslationCacheSize: 300,
		ChunkThreshold:       1000,
		SegmentBatchSize:     5,
		SpeechTextLimit:      500,
		MaxRetries:           3,
		RefreshTTL:           30 * time.Minute,
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
	}
}
