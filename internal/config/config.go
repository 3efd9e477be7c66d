package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env      Env
	Server   ServerConfig
	Upload   UploadConfig
	Security SecurityConfig
	Checksum ChecksumConfig
	Worker   WorkerConfig
	Storage  StorageConfig
	Minio    MinioConfig
	Local    LocalStorageConfig
	NATS     NATSConfig
	Database DatabaseConfig
}

type Env struct {
	Env string `envconfig:"ENV" default:"DEV"`
}

type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"localhost"`
	Port string `envconfig:"SERVER_PORT" default:"8080"`
}

// UploadConfig tunes the resumable upload protocol layer.
type UploadConfig struct {
	MaxUploadSize int64         `envconfig:"UPLOAD_MAX_SIZE" default:"5368709120"` // 5GB
	StagingDir    string        `envconfig:"UPLOAD_STAGING_DIR" default:"/tmp/formio-uploads"`
	SessionTTL    time.Duration `envconfig:"UPLOAD_SESSION_TTL" default:"30m"`
	CleanupEvery  time.Duration `envconfig:"UPLOAD_CLEANUP_EVERY" default:"15m"`
}

// SecurityConfig carries the allow-lists and rate limit budget. Nothing here is
// hardcoded into the validator itself.
type SecurityConfig struct {
	RateLimitWindow      time.Duration `envconfig:"SECURITY_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitMaxRequests int           `envconfig:"SECURITY_RATE_LIMIT_MAX_REQUESTS" default:"100"`
	RateLimitCleanup     time.Duration `envconfig:"SECURITY_RATE_LIMIT_CLEANUP" default:"5m"`
	AllowedMimeTypes     []string      `envconfig:"SECURITY_ALLOWED_MIME_TYPES" default:"image/jpeg,image/png,image/gif,image/webp,application/pdf,text/plain,text/csv,application/zip,video/mp4,application/octet-stream"`
	DeniedExtensions     []string      `envconfig:"SECURITY_DENIED_EXTENSIONS" default:".exe,.dll,.bat,.cmd,.sh,.ps1,.php,.phtml,.asp,.aspx,.jsp,.js,.vbs,.jar,.com,.scr,.msi,.lnk,.cgi,.pl,.py"`
	MaxFileNameLength    int           `envconfig:"SECURITY_MAX_FILENAME_LENGTH" default:"255"`
	AppendTimestamp      bool          `envconfig:"SECURITY_FILENAME_APPEND_TIMESTAMP" default:"false"`
}

type ChecksumConfig struct {
	ChunkSize int `envconfig:"CHECKSUM_CHUNK_SIZE" default:"65536"` // 64KB
}

// WorkerConfig tunes the storage worker pool.
type WorkerConfig struct {
	PoolSize           int           `envconfig:"WORKER_POOL_SIZE" default:"4"`
	MultipartThreshold int64         `envconfig:"WORKER_MULTIPART_THRESHOLD" default:"5242880"` // 5MB
	MultipartChunkSize int64         `envconfig:"WORKER_MULTIPART_CHUNK_SIZE" default:"5242880"`
	SignedURLTTL       time.Duration `envconfig:"WORKER_SIGNED_URL_TTL" default:"15m"`
	VerifyChecksum     bool          `envconfig:"WORKER_VERIFY_CHECKSUM" default:"true"`
}

// StorageConfig selects the storage backend implementation.
type StorageConfig struct {
	Backend string `envconfig:"STORAGE_BACKEND" default:"minio"` // minio | local
}

type MinioConfig struct {
	Endpoint   string `envconfig:"MINIO_ENDPOINT" required:"true"`
	BucketName string `envconfig:"MINIO_BUCKET_NAME" required:"true"`
	AccessKey  string `envconfig:"MINIO_ACCESS_KEY" required:"true"`
	SecretKey  string `envconfig:"MINIO_SECRET_KEY" required:"true"`
	UseSSL     bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

type LocalStorageConfig struct {
	Dir     string `envconfig:"LOCAL_STORAGE_DIR" default:"/var/lib/formio-server/files"`
	BaseURL string `envconfig:"LOCAL_STORAGE_BASE_URL" default:"http://localhost:8080/files"`
}

type NATSConfig struct {
	URL          string `envconfig:"NATS_URL" required:"true"`
	StreamName   string `envconfig:"NATS_STREAM_NAME" default:"STORAGE_JOBS"`
	ConsumerName string `envconfig:"NATS_CONSUMER_NAME" default:"storage-worker"`
	Subject      string `envconfig:"NATS_SUBJECT" default:"storage-upload"`
	DeliverGroup string `envconfig:"NATS_DELIVER_GROUP" default:"storage-workers"`
}

type DatabaseConfig struct {
	Host           string        `envconfig:"DB_HOST" required:"true"`
	Port           int           `envconfig:"DB_PORT" default:"5432"`
	User           string        `envconfig:"DB_USER" required:"true"`
	Password       string        `envconfig:"DB_PASSWORD" required:"true"`
	Name           string        `envconfig:"DB_NAME" required:"true"`
	SSLMode        string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenCons    int           `envconfig:"DB_MAX_OPEN_CONS" default:"25"`
	MaxIdleCons    int           `envconfig:"DB_MAX_IDLE_CONS" default:"5"`
	ConMaxLifeTime time.Duration `envconfig:"DB_CONMAX_LIFE_TIME" default:"5m"`
}

func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
