package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pdf-notes/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AnalysisConfig holds settings for the document-analysis service client.
type AnalysisConfig struct {
	HTTPConfig `yaml:",inline"`

	// Endpoint is the service base URL (e.g. "https://myres.cognitiveservices.azure.com").
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// APIKey authenticates requests to the service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Model is the analysis model identifier (default "prebuilt-layout").
	Model string `json:"model" yaml:"model"`

	// APIVersion is the REST API version query parameter (default "2023-07-31").
	APIVersion string `json:"api_version" yaml:"api_version"`

	// PollInterval is the delay between status polls (default 1s).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// PollTimeout bounds how long one document may stay pending (default 5m).
	PollTimeout time.Duration `json:"poll_timeout" yaml:"poll_timeout"`

	// MaxRetries is the number of retries on HTTP 429/503 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// CacheBackend identifies the persistence used for the fingerprint cache.
type CacheBackend string

const (
	CacheJSON   CacheBackend = "json"
	CacheSQLite CacheBackend = "sqlite"
)

// CacheConfig holds settings for the fingerprint cache.
type CacheConfig struct {
	// Backend selects the store: json or sqlite.
	Backend CacheBackend `json:"backend" yaml:"backend"`

	// Path is the cache file location.
	Path string `json:"path" yaml:"path"`
}

// BatchConfig holds settings for the batch conversion run.
type BatchConfig struct {
	// InputDir is the folder scanned (non-recursively) for PDFs.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputFile is the path of the aggregate Markdown artifact.
	OutputFile string `json:"output_file" yaml:"output_file"`

	// CallDelay is the courtesy pause after each successful service call (default 500ms).
	CallDelay time.Duration `json:"call_delay" yaml:"call_delay"`

	// Preflight enables a local PDF parse before uploading a file.
	Preflight bool `json:"preflight" yaml:"preflight"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// File is the log file appended to on every run (default "processing.log").
	File string `json:"file" yaml:"file"`

	// Level is the minimum log level: debug, info, warn, or error.
	Level string `json:"level" yaml:"level"`
}

// Config groups all settings for a pdf-notes run.
type Config struct {
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
	Batch    BatchConfig    `json:"batch" yaml:"batch"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	Log      LogConfig      `json:"log" yaml:"log"`
}
