package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	httpin "ekanban/internal/adapters/in/http"
	"ekanban/internal/jobs"
	"ekanban/internal/pkg/errs"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	defaultHTTPPort     = "8080"
	defaultCardCacheTTL = 10 * time.Minute
	defaultOrderTopic   = "ekanban.order-changed"
)

type Config struct {
	HTTPPort    string
	Role        httpin.Role
	StoreDriver string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CardCacheTTL  time.Duration

	KafkaHost              string
	KafkaOrderChangedTopic string

	CardsSeedFile        string
	SiteLocations        []string
	DisplayTimezone      *time.Location
	UrgencySweepSchedule string
}

// LoadConfig reads the configuration through getenv, usually os.Getenv
// after the .env file is loaded. Every malformed key is reported.
func LoadConfig(getenv func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		HTTPPort:               get("HTTP_PORT", defaultHTTPPort),
		StoreDriver:            strings.ToLower(get("STORE_DRIVER", StoreDriverPostgres)),
		DBHost:                 get("DB_HOST", "localhost"),
		DBPort:                 get("DB_PORT", "5432"),
		DBUser:                 get("DB_USER", ""),
		DBPassword:             getenv("DB_PASSWORD"),
		DBName:                 get("DB_NAME", ""),
		DBSslMode:              get("DB_SSLMODE", "disable"),
		RedisAddr:              get("REDIS_ADDR", ""),
		RedisPassword:          getenv("REDIS_PASSWORD"),
		CardCacheTTL:           defaultCardCacheTTL,
		KafkaHost:              get("KAFKA_HOST", ""),
		KafkaOrderChangedTopic: get("KAFKA_ORDER_CHANGED_TOPIC", defaultOrderTopic),
		CardsSeedFile:          get("CARDS_SEED_FILE", ""),
		SiteLocations:          splitList(getenv("SITE_LOCATIONS")),
		DisplayTimezone:        time.UTC,
		UrgencySweepSchedule:   get("URGENCY_SWEEP_SCHEDULE", jobs.DefaultUrgencySchedule),
	}

	var parseErrs []error

	role, err := httpin.ParseRole(get("ROLE", string(httpin.RoleDispatcher)))
	if err != nil {
		parseErrs = append(parseErrs, err)
	}
	cfg.Role = role

	if v := get("REDIS_DB", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			parseErrs = append(parseErrs, errs.NewValueIsInvalidErrorWithCause("REDIS_DB", err))
		}
		cfg.RedisDB = n
	}

	if v := get("CARD_CACHE_TTL", ""); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			parseErrs = append(parseErrs, errs.NewValueIsInvalidErrorWithCause("CARD_CACHE_TTL", err))
		}
		cfg.CardCacheTTL = ttl
	}

	if v := get("DISPLAY_TIMEZONE", ""); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			parseErrs = append(parseErrs, errs.NewValueIsInvalidErrorWithCause("DISPLAY_TIMEZONE", err))
		} else {
			cfg.DisplayTimezone = loc
		}
	}

	if err := errors.Join(parseErrs...); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var problems []error

	if _, err := httpin.ParseRole(string(c.Role)); err != nil {
		problems = append(problems, err)
	}

	switch c.StoreDriver {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if c.DBUser == "" {
			problems = append(problems, errs.NewValueIsRequiredError("DB_USER"))
		}
		if c.DBName == "" {
			problems = append(problems, errs.NewValueIsRequiredError("DB_NAME"))
		}
	default:
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("STORE_DRIVER",
			fmt.Errorf("%q is not %s or %s", c.StoreDriver, StoreDriverPostgres, StoreDriverMemory)))
	}

	if c.HTTPPort == "" {
		problems = append(problems, errs.NewValueIsRequiredError("HTTP_PORT"))
	}
	if c.CardCacheTTL <= 0 {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("CARD_CACHE_TTL",
			fmt.Errorf("%s is not positive", c.CardCacheTTL)))
	}
	if c.KafkaHost != "" && c.KafkaOrderChangedTopic == "" {
		problems = append(problems, errs.NewValueIsRequiredError("KAFKA_ORDER_CHANGED_TOPIC"))
	}

	return errors.Join(problems...)
}

// DSN is accepted by both the gorm driver and the lib/pq listener.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
