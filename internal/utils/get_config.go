package utils

import (
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2/log"
	"gopkg.in/yaml.v2"
)

type Config struct {
	// Server configuration
	AppURL             string `yaml:"APP_URL"`
	ServerPort         string `yaml:"SERVER_PORT"`
	LogFile            string `yaml:"LOG_FILE"`
	RateLimitPerSecond string `yaml:"RATE_LIMIT_PER_SECOND"`

	// Database configuration
	DBDriver     string `yaml:"DB_DRIVER"`
	DBUser       string `yaml:"DB_USER"`
	DBName       string `yaml:"DB_NAME"`
	DBPassword   string `yaml:"DB_PASSWORD"`
	DBPort       string `yaml:"DB_PORT"`
	DBHost       string `yaml:"DB_HOST"`
	DBSqlitePath string `yaml:"DB_SQLITE_PATH"`
	DBMaxOpen    string `yaml:"DB_MAX_OPEN_CONNS"`
	DBMaxIdle    string `yaml:"DB_MAX_IDLE_CONNS"`

	// JWT
	JWTSecret     string `yaml:"JWT_SECRET"`
	JWTTTLMinutes string `yaml:"JWT_TTL_MINUTES"`

	// Mailing configuration
	SMTPHost         string `yaml:"SMTP_HOST"`
	SMTPPort         string `yaml:"SMTP_PORT"`
	SMTPSenderName   string `yaml:"SMTP_SENDER_NAME"`
	SMTPAuthEmail    string `yaml:"SMTP_AUTH_EMAIL"`
	SMTPAuthPassword string `yaml:"SMTP_AUTH_PASSWORD"`

	// AWS S3 configuration
	AWSS3Bucket   string `yaml:"AWS_S3_BUCKET"`
	AWSS3Region   string `yaml:"AWS_S3_REGION"`
	AWSS3Endpoint string `yaml:"AWS_S3_ENDPOINT"`
	AWSAccessKey  string `yaml:"AWS_ACCESS_KEY"`
	AWSSecretKey  string `yaml:"AWS_SECRET_KEY"`

	// Recipes
	ShortLinkLength string `yaml:"SHORT_LINK_LENGTH"`
}

var config Config

var defaults = map[string]string{
	"SERVER_PORT":           "8080",
	"LOG_FILE":              "./logs/app.log",
	"RATE_LIMIT_PER_SECOND": "20",
	"DB_DRIVER":             "postgres",
	"DB_SQLITE_PATH":        "foodgram.db",
	"DB_MAX_OPEN_CONNS":     "25",
	"DB_MAX_IDLE_CONNS":     "5",
	"JWT_TTL_MINUTES":       "1440",
	"SHORT_LINK_LENGTH":     "6",
	"APP_URL":               "http://localhost:8080",
}

// LoadConfigFrom reads the yaml config file at path. A missing file is not fatal:
// values then come from the environment and defaults.
func LoadConfigFrom(path string) {
	file, err := os.ReadFile(path)
	if err != nil {
		log.Warnf("reading config file %s: %v", path, err)
		return
	}

	var loaded Config
	if err := yaml.Unmarshal(file, &loaded); err != nil {
		log.Errorf("parsing config file %s: %v", path, err)
		return
	}
	config = loaded
}

func fileValue(key string) string {
	switch key {
	case "APP_URL":
		return config.AppURL
	case "SERVER_PORT":
		return config.ServerPort
	case "LOG_FILE":
		return config.LogFile
	case "RATE_LIMIT_PER_SECOND":
		return config.RateLimitPerSecond
	case "DB_DRIVER":
		return config.DBDriver
	case "DB_USER":
		return config.DBUser
	case "DB_NAME":
		return config.DBName
	case "DB_PASSWORD":
		return config.DBPassword
	case "DB_PORT":
		return config.DBPort
	case "DB_HOST":
		return config.DBHost
	case "DB_SQLITE_PATH":
		return config.DBSqlitePath
	case "DB_MAX_OPEN_CONNS":
		return config.DBMaxOpen
	case "DB_MAX_IDLE_CONNS":
		return config.DBMaxIdle
	case "JWT_SECRET":
		return config.JWTSecret
	case "JWT_TTL_MINUTES":
		return config.JWTTTLMinutes
	case "SMTP_HOST":
		return config.SMTPHost
	case "SMTP_PORT":
		return config.SMTPPort
	case "SMTP_SENDER_NAME":
		return config.SMTPSenderName
	case "SMTP_AUTH_EMAIL":
		return config.SMTPAuthEmail
	case "SMTP_AUTH_PASSWORD":
		return config.SMTPAuthPassword
	case "AWS_S3_BUCKET":
		return config.AWSS3Bucket
	case "AWS_S3_REGION":
		return config.AWSS3Region
	case "AWS_S3_ENDPOINT":
		return config.AWSS3Endpoint
	case "AWS_ACCESS_KEY":
		return config.AWSAccessKey
	case "AWS_SECRET_KEY":
		return config.AWSSecretKey
	case "SHORT_LINK_LENGTH":
		return config.ShortLinkLength
	default:
		return ""
	}
}

// GetConfig resolves key from the environment, then the config file, then the
// built-in default.
func GetConfig(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := fileValue(key); v != "" {
		return v
	}
	return defaults[key]
}

func GetConfigInt(key string, fallback int) int {
	n, err := strconv.Atoi(GetConfig(key))
	if err != nil {
		return fallback
	}
	return n
}
