package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ysalem/formbuilder-server/models"
)

// Config holds everything read from the environment at boot.
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogPretty      bool
	AllowedOrigins []string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret      string
	GoogleClientID string

	// Fallbacks when the settings table has no value yet.
	UploadBasePath string
	MaxUploadMB    int

	ExportBasePath string
}

func Load() Config {
	cfg := Config{
		Port:           getenv("PORT", "8080"),
		GinMode:        getenv("GIN_MODE", "debug"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogPretty:      getenv("LOG_PRETTY", "false") == "true",
		DBHost:         getenv("DB_HOST", "localhost"),
		DBPort:         getenv("DB_PORT", "5432"),
		DBUser:         getenv("DB_USER", "postgres"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         getenv("DB_NAME", "formbuilder"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),
		UploadBasePath: getenv("UPLOAD_BASE_PATH", "storage/uploads"),
		MaxUploadMB:    getenvInt("MAX_UPLOAD_MB", 10),
		ExportBasePath: getenv("EXPORT_BASE_PATH", "storage/exports"),
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// ConnectDB opens the PostgreSQL connection and migrates the schema.
func ConnectDB(cfg Config) *gorm.DB {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	if err := Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate")
	}

	log.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("connected to PostgreSQL and migrated")
	return db
}

// Migrate runs AutoMigrate for every table. Shared with the test helpers,
// which run it against sqlite.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Admin{},
		&models.Department{},
		&models.Form{},
		&models.FormField{},
		&models.FormSubmission{},
		&models.SubmissionAnswer{},
		&models.Setting{},
		&models.AuditLog{},
		&models.SavedFilter{},
		&models.FormTemplate{},
		&models.ExportJob{},
		&models.Notification{},
	)
}
