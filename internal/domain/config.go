package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Downloader DownloaderConfig `mapstructure:"downloader"`
	Transcoder TranscoderConfig `mapstructure:"transcoder"`
	Media      MediaConfig      `mapstructure:"media"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Cookies    CookiesConfig    `mapstructure:"cookies"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host      string  `mapstructure:"host"`
	Port      int     `mapstructure:"port"`
	RateLimit float64 `mapstructure:"rate_limit"` // upload requests per second, 0 disables
	RateBurst int     `mapstructure:"rate_burst"`
}

// DownloaderConfig contains yt-dlp related configuration
type DownloaderConfig struct {
	Binary       string        `mapstructure:"binary"`
	TempDir      string        `mapstructure:"temp_dir"`
	LogsDir      string        `mapstructure:"logs_dir"`
	ToolTimeout  time.Duration `mapstructure:"tool_timeout"` // per invocation, 0 means no deadline
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	ListFormats  bool          `mapstructure:"list_formats"`

	// SegmentRetrySignatures are matched case-insensitively against the tool's
	// error output. A match retries the same strategy once with SegmentRetryArgs.
	SegmentRetrySignatures []string `mapstructure:"segment_retry_signatures"`
	SegmentRetryArgs       []string `mapstructure:"segment_retry_args"`

	// OptionalFlags are only passed when the capability probe confirmed them.
	OptionalFlags []string `mapstructure:"optional_flags"`
}

// TranscoderConfig contains ffmpeg related configuration
type TranscoderConfig struct {
	Binary     string `mapstructure:"binary"`
	Enabled    bool   `mapstructure:"enabled"`
	Bitrate    string `mapstructure:"bitrate"`
	SampleRate int    `mapstructure:"sample_rate"`
	Format     string `mapstructure:"format"`
}

// MediaConfig contains remote media host configuration
type MediaConfig struct {
	CloudName          string   `mapstructure:"cloud_name"`
	APIKey             string   `mapstructure:"api_key"`
	APISecret          string   `mapstructure:"api_secret"`
	Folder             string   `mapstructure:"folder"`
	ChunkSize          int64    `mapstructure:"chunk_size"`
	TooLargeSignatures []string `mapstructure:"too_large_signatures"`
}

// StorageConfig selects and configures the metadata store
type StorageConfig struct {
	Driver        string `mapstructure:"driver"` // sqlite, mongo
	DatabasePath  string `mapstructure:"database_path"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

// CookiesConfig points at the exported browser cookie file
type CookiesConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

const (
	StorageSQLite = "sqlite"
	StorageMongo  = "mongo"

	// DefaultChunkSize is the chunk size used when a single-shot upload is rejected as too large.
	DefaultChunkSize int64 = 10_485_760
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      4000,
			RateLimit: 2,
			RateBurst: 5,
		},
		Downloader: DownloaderConfig{
			Binary:       "yt-dlp",
			TempDir:      "$HOME/.tunedrop/tmp",
			LogsDir:      "$HOME/.tunedrop/logs",
			ToolTimeout:  10 * time.Minute,
			ProbeTimeout: 30 * time.Second,
			ListFormats:  true,
			SegmentRetrySignatures: []string{
				"unable to download fragment",
				"fragment not found",
				"unable to download segment",
			},
			SegmentRetryArgs: []string{"--hls-prefer-ffmpeg", "--hls-use-mpegts"},
		},
		Transcoder: TranscoderConfig{
			Binary:     "ffmpeg",
			Enabled:    true,
			Bitrate:    "192k",
			SampleRate: 44100,
			Format:     "mp3",
		},
		Media: MediaConfig{
			Folder:             "songs",
			ChunkSize:          DefaultChunkSize,
			TooLargeSignatures: []string{"413", "file size too large", "request entity too large"},
		},
		Storage: StorageConfig{
			Driver:        StorageSQLite,
			DatabasePath:  "$HOME/.tunedrop/library.db",
			MongoDatabase: "tunedrop",
		},
		Cookies: CookiesConfig{
			Path: "$HOME/.tunedrop/cookies.txt",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
