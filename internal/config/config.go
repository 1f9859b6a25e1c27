package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	BackendFile  = "file"
	BackendRedis = "redis"
)

type Config struct {
	// Server
	Port        string
	Env         string
	TLSCertFile string
	TLSKeyFile  string
	FrontendURL string

	// Storage
	DataPath        string
	DocumentPath    string
	DocumentBackend string
	ImagesPath      string
	ThumbsPath      string
	UploadMaxBytes  int64

	// Redis (document backend)
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	RedisDocumentKey string

	// Admin
	AdminUsername     string
	AdminPassword     string
	AdminPasswordHash string

	// Audit database
	AuditEnabled bool
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string

	// Media S3 mirror
	MediaS3Endpoint        string
	MediaS3Region          string
	MediaS3AccessKeyID     string
	MediaS3SecretAccessKey string
	MediaS3UsePathStyle    bool
	MediaS3Bucket          string

	// Thumbnails
	ThumbsRebuildOnStart bool

	// CORS
	AllowedOrigins []string
}

func New() *Config {
	env := getEnv("ENV", EnvProduction)
	// legacy flag from the node deployment: dev=true
	if os.Getenv("dev") == "true" {
		env = EnvDevelopment
	}

	dataPath := getEnv("DATA_PATH", ".")

	return &Config{
		// Server
		Port:        getEnv("PORT", getEnv("port", "8089")),
		Env:         env,
		TLSCertFile: getEnv("TLS_CERT_FILE", os.Getenv("cert")),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", os.Getenv("key")),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),

		// Storage
		DataPath:        dataPath,
		DocumentPath:    getEnv("DOCUMENT_PATH", filepath.Join(dataPath, "db.json")),
		DocumentBackend: getEnv("DOCUMENT_BACKEND", BackendFile),
		ImagesPath:      getEnv("IMAGES_PATH", filepath.Join(dataPath, "images")),
		ThumbsPath:      getEnv("THUMBS_PATH", filepath.Join(dataPath, "thumbs")),
		UploadMaxBytes:  int64(getEnvAsInt("UPLOAD_MAX_BYTES", 32<<20)),

		// Redis
		RedisHost:        getEnv("REDIS_HOST", "localhost"),
		RedisPort:        getEnv("REDIS_PORT", "6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),
		RedisDocumentKey: getEnv("REDIS_DOCUMENT_KEY", "gallery:document"),

		// Admin
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		// Audit database
		AuditEnabled: getEnv("AUDIT_ENABLED", "false") == "true",
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "gallery"),
		DBPassword:   getEnv("DB_PASSWORD", ""),
		DBName:       getEnv("DB_NAME", "gallery"),
		DBSSLMode:    getEnv("DB_SSL_MODE", "disable"),

		// Media S3
		MediaS3Endpoint:        getEnv("MEDIA_S3_ENDPOINT", ""),
		MediaS3Region:          getEnv("MEDIA_S3_REGION", "us-east-1"),
		MediaS3AccessKeyID:     getEnv("MEDIA_S3_ACCESS_KEY_ID", ""),
		MediaS3SecretAccessKey: getEnv("MEDIA_S3_SECRET_ACCESS_KEY", ""),
		MediaS3UsePathStyle:    getEnv("MEDIA_S3_USE_PATH_STYLE", "true") == "true",
		MediaS3Bucket:          getEnv("MEDIA_S3_BUCKET", ""),

		// Thumbnails
		ThumbsRebuildOnStart: getEnv("THUMBS_REBUILD_ON_START", "false") == "true",

		// CORS
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
	}
}

// IsProduction reports whether the server must terminate TLS itself.
func (c *Config) IsProduction() bool {
	return c.Env != EnvDevelopment
}

// MirrorEnabled reports whether uploads are copied to S3.
func (c *Config) MirrorEnabled() bool {
	return c.MediaS3Bucket != ""
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() && (c.TLSCertFile == "" || c.TLSKeyFile == "") {
		errs = append(errs, errors.New("production mode requires TLS_CERT_FILE and TLS_KEY_FILE"))
	}
	if c.AdminUsername == "" {
		errs = append(errs, errors.New("ADMIN_USERNAME must not be empty"))
	}
	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required"))
	}
	if c.DocumentBackend != BackendFile && c.DocumentBackend != BackendRedis {
		errs = append(errs, errors.New("DOCUMENT_BACKEND must be \"file\" or \"redis\""))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
