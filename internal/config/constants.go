package config

import "time"

const (
	// Server
	DefaultHTTPAddr    = ":8080"
	HTTPReadTimeout    = 10 * time.Second
	HTTPWriteTimeout   = 10 * time.Second
	HTTPMaxHeaderBytes = 1 << 20

	// Delivery
	DefaultSendTimeout = 10 * time.Second
	EventBufferSize    = 256
	IncomingBufferSize = 64

	// Anonymous identities
	AnonTokenTTL    = 72 * time.Hour
	AnonTokenIssuer = "anonpair-service"

	// Stats
	DefaultStatsSchedule = "@every 5m"

	// Analyst
	DefaultHFBaseURL    = "https://router.huggingface.co/v1"
	DefaultHFModel      = "deepseek-ai/DeepSeek-V3.2-Exp:novita"
	AnalystMaxTokens    = 3500
	AnalystTemperature  = 0.7
	AnalystMessageLimit = 4000
	AnalystMinQuery     = 5
	AnalystTimeout      = 2 * time.Minute
)
