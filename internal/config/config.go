package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int           `mapstructure:"port"`
		ReadTimeout        time.Duration `mapstructure:"read_timeout"`
		WriteTimeout       time.Duration `mapstructure:"write_timeout"`
		ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
		CorsAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string      `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string      `mapstructure:"cors_allowed_headers"`
	} `mapstructure:"server"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
		MaxConns int32  `mapstructure:"max_conns"`
		MinConns int32  `mapstructure:"min_conns"`
	} `mapstructure:"database"`

	// JWT validates access tokens issued by the auth provider.
	JWT struct {
		Secret   string `mapstructure:"secret"`
		Issuer   string `mapstructure:"issuer"`
		Audience string `mapstructure:"audience"`
	} `mapstructure:"jwt"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Email struct {
		ResendAPIKey string `mapstructure:"resend_api_key"`
		From         string `mapstructure:"from"`
		ReplyTo      string `mapstructure:"reply_to"`
	} `mapstructure:"email"`

	SMS struct {
		TwilioAccountSID string `mapstructure:"twilio_account_sid"`
		TwilioAuthToken  string `mapstructure:"twilio_auth_token"`
		From             string `mapstructure:"from"`
		DefaultRegion    string `mapstructure:"default_region"`
	} `mapstructure:"sms"`

	Storage struct {
		Endpoint        string `mapstructure:"endpoint"`
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		PublicBaseURL   string `mapstructure:"public_base_url"`
	} `mapstructure:"storage"`

	Quotes struct {
		DefaultHourlyRate string `mapstructure:"default_hourly_rate"`
		DefaultTaxRate    string `mapstructure:"default_tax_rate"`
		ValidityDays      int    `mapstructure:"validity_days"`
		PublicBaseURL     string `mapstructure:"public_base_url"`
		SuccessURL        string `mapstructure:"success_url"`
		AlreadyURL        string `mapstructure:"already_responded_url"`
		ErrorURL          string `mapstructure:"error_url"`
		BookingURL        string `mapstructure:"booking_url"`
		CompanyName       string `mapstructure:"company_name"`
	} `mapstructure:"quotes"`

	Outbox struct {
		Interval    time.Duration `mapstructure:"interval"`
		BatchSize   int           `mapstructure:"batch_size"`
		MaxAttempts int           `mapstructure:"max_attempts"`
		Lease       time.Duration `mapstructure:"lease"`
	} `mapstructure:"outbox"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// Load reads configs/config.yaml when present, then the environment.
func Load() *Config {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")

	// Nested keys map to SECTION_KEY environment variables.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("config unmarshal error: %v", err)
	}

	applyEnvOverrides(&cfg)

	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 20*time.Second)
	v.SetDefault("server.cors_allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Authorization", "Content-Type", "X-Request-ID"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "hvac")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)

	v.SetDefault("jwt.audience", "authenticated")

	v.SetDefault("email.from", "Devis <devis@example.be>")
	v.SetDefault("sms.default_region", "BE")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.bucket", "tech-reports")

	v.SetDefault("quotes.default_hourly_rate", "65")
	v.SetDefault("quotes.default_tax_rate", "21")
	v.SetDefault("quotes.validity_days", 30)
	v.SetDefault("quotes.public_base_url", "http://localhost:8080")
	v.SetDefault("quotes.success_url", "http://localhost:3000/devis/merci")
	v.SetDefault("quotes.already_responded_url", "http://localhost:3000/devis/deja-repondu")
	v.SetDefault("quotes.error_url", "http://localhost:3000/devis/erreur")
	v.SetDefault("quotes.booking_url", "http://localhost:3000/rendez-vous")
	v.SetDefault("quotes.company_name", "HVAC")

	v.SetDefault("outbox.interval", 10*time.Second)
	v.SetDefault("outbox.batch_size", 20)
	v.SetDefault("outbox.max_attempts", 5)
	v.SetDefault("outbox.lease", 2*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// applyEnvOverrides maps the flat variable names used by deployments.
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}

	overrides := []struct {
		env string
		dst *string
	}{
		{"JWT_SECRET", &cfg.JWT.Secret},
		{"REDIS_ADDR", &cfg.Redis.Addr},
		{"REDIS_PASSWORD", &cfg.Redis.Password},
		{"RESEND_API_KEY", &cfg.Email.ResendAPIKey},
		{"EMAIL_FROM", &cfg.Email.From},
		{"TWILIO_ACCOUNT_SID", &cfg.SMS.TwilioAccountSID},
		{"TWILIO_AUTH_TOKEN", &cfg.SMS.TwilioAuthToken},
		{"TWILIO_FROM", &cfg.SMS.From},
		{"S3_ENDPOINT", &cfg.Storage.Endpoint},
		{"S3_BUCKET", &cfg.Storage.Bucket},
		{"S3_ACCESS_KEY_ID", &cfg.Storage.AccessKeyID},
		{"S3_SECRET_ACCESS_KEY", &cfg.Storage.SecretAccessKey},
		{"S3_PUBLIC_BASE_URL", &cfg.Storage.PublicBaseURL},
		{"PUBLIC_BASE_URL", &cfg.Quotes.PublicBaseURL},
	}
	for _, o := range overrides {
		if val := os.Getenv(o.env); val != "" {
			*o.dst = val
		}
	}
}

// DatabaseURL builds the pgx connection string.
func (c *Config) DatabaseURL() string {
	return "postgres://" + c.Database.User + ":" + c.Database.Password + "@" +
		c.Database.Host + ":" + strconv.Itoa(c.Database.Port) + "/" + c.Database.Name +
		"?sslmode=" + c.Database.SSLMode
}
