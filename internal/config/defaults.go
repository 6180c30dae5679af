package config

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultRateLimitPerMinute = 60

	DefaultDBPath = "./data/crop_yield.db"

	DefaultModel      = "claude-sonnet-4-6"
	DefaultLLMTimeout = 60 // seconds, per LLM call

	DefaultCORSMaxAge = 300
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8501",
}

// DefaultSources describes the single-table deployment shipped with the
// crop_yield dataset. Deployments with separate crop/rainfall tables override
// this via the JSON config file.
var DefaultSources = map[string]Source{
	"crop_yield": {
		URL:  "N/A (Uploaded from crop_yield.csv)",
		File: "crop_yield.csv",
		Description: "State-wise, season-wise crop production statistics from 1997-2018, " +
			"including Area, Production, Annual_Rainfall, Fertilizer, Pesticide, and Yield.",
	},
}

var DefaultPIIKeywords = []string{
	"password", "ssn", "social security", "credit card",
	"bank account", "pin", "secret", "private key",
	"access token", "api key",
}
