package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env        Env
	Server     ServerConfig
	Minio      MinioConfig
	Scheduler  SchedulerConfig
	Processing ProcessingConfig
	Cache      CacheConfig
	NATS       NATSConfig
	FFmpeg     FFmpegConfig
	Store      StoreConfig
}

type Env struct {
	Env string `envconfig:"ENV" default:"DEV"`
}

type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"localhost"`
	Port string `envconfig:"SERVER_PORT" default:"8080"`
}

type MinioConfig struct {
	Endpoint               string        `envconfig:"MINIO_ENDPOINT" required:"true"`
	BucketName             string        `envconfig:"MINIO_BUCKET_NAME" required:"true"`
	AccessKey              string        `envconfig:"MINIO_ACCESS_KEY" required:"true"`
	SecretKey              string        `envconfig:"MINIO_SECRET_KEY" required:"true"`
	UseSSL                 bool          `envconfig:"MINIO_USE_SSL" default:"false"`
	PublicRead             bool          `envconfig:"MINIO_PUBLIC_READ" default:"true"`
	DownloadSignedDuration time.Duration `envconfig:"MINIO_DOWNLOAD_SIGNED_DURATION" default:"1h"`
	UploadCacheControl     string        `envconfig:"MINIO_UPLOAD_CACHE_CONTROL" default:"public, max-age=31536000"`
}

type SchedulerConfig struct {
	MaxConcurrent   int           `envconfig:"SCHEDULER_MAX_CONCURRENT" default:"3"`
	DefaultPriority int           `envconfig:"SCHEDULER_DEFAULT_PRIORITY" default:"5"`
	MaxRetries      int           `envconfig:"SCHEDULER_MAX_RETRIES" default:"3"`
	RetryBaseDelay  time.Duration `envconfig:"SCHEDULER_RETRY_BASE_DELAY" default:"2s"`
	BackoffFactor   float64       `envconfig:"SCHEDULER_BACKOFF_FACTOR" default:"1.5"`
	MaxTaskAge      time.Duration `envconfig:"SCHEDULER_MAX_TASK_AGE" default:"168h"`
}

type ProcessingConfig struct {
	WorkDir          string  `envconfig:"PROCESSING_WORK_DIR" default:"./data/processing"`
	MaxSourceBytes   int64   `envconfig:"PROCESSING_MAX_SOURCE_BYTES" default:"524288000"` // 500MB
	MediumThreshold  int64   `envconfig:"PROCESSING_MEDIUM_THRESHOLD" default:"52428800"`  // 50MB
	LargeThreshold   int64   `envconfig:"PROCESSING_LARGE_THRESHOLD" default:"104857600"`  // 100MB
	CopyChunkSize    int64   `envconfig:"PROCESSING_COPY_CHUNK_SIZE" default:"1048576"`    // 1MB
	ThumbnailWidth   int     `envconfig:"PROCESSING_THUMBNAIL_WIDTH" default:"480"`
	ThumbnailQuality int     `envconfig:"PROCESSING_THUMBNAIL_QUALITY" default:"2"`
	ThumbnailOffset  float64 `envconfig:"PROCESSING_THUMBNAIL_OFFSET" default:"0"`
}

type CacheConfig struct {
	Dir             string        `envconfig:"CACHE_DIR" default:"./data/cache"`
	MaxBytes        int64         `envconfig:"CACHE_MAX_BYTES" default:"1073741824"` // 1GB
	MaxAge          time.Duration `envconfig:"CACHE_MAX_AGE" default:"72h"`
	JanitorEvery    time.Duration `envconfig:"CACHE_JANITOR_EVERY" default:"30m"`
	DownloadTimeout time.Duration `envconfig:"CACHE_DOWNLOAD_TIMEOUT" default:"2m"`
}

type NATSConfig struct {
	URL           string `envconfig:"NATS_URL" default:""`
	StreamName    string `envconfig:"NATS_STREAM_NAME" default:"UPLOADS"`
	SubjectPrefix string `envconfig:"NATS_SUBJECT_PREFIX" default:"uploads"`
	ClientName    string `envconfig:"NATS_CLIENT_NAME" default:"clipstream"`
}

type FFmpegConfig struct {
	FFmpegPath  string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	FFprobePath string `envconfig:"FFPROBE_PATH" default:"ffprobe"`
}

type StoreConfig struct {
	DataDir string `envconfig:"STORE_DATA_DIR" default:"./data"`
}

func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
