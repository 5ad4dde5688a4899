package config

const (
	defaultDataDir         = "~/.local/share/reelsync"
	defaultLogDir          = "~/.local/share/reelsync/logs"
	defaultBatchSize       = 500
	defaultFailurePolicy   = PolicySkip
	defaultStaleAfterHours = 24
	defaultGeminiBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel     = "gemini-2.0-flash"
	defaultGeminiTimeout   = 30
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Failure policies for the relationship builder (see Reconcile.FailurePolicy).
const (
	PolicySkip  = "skip"
	PolicyRetry = "retry"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Reconcile: Reconcile{
			BatchSize:       defaultBatchSize,
			FailurePolicy:   defaultFailurePolicy,
			StaleAfterHours: defaultStaleAfterHours,
		},
		Gemini: Gemini{
			BaseURL:        defaultGeminiBaseURL,
			Model:          defaultGeminiModel,
			TimeoutSeconds: defaultGeminiTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
