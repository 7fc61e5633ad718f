package server

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	domainerrors "todoapp/internal/domain/errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config is built once at startup and treated as read-only afterwards.
type Config struct {
	Addr               string      `json:"addr"`
	Port               int         `json:"port"`
	DBStr              string      `json:"db_str"`
	MigratePath        string      `json:"migrate_path"`
	SecretKey          string      `json:"secret_key"`
	Algorithm          string      `json:"algorithm"`
	BcryptCost         int         `json:"bcrypt_cost"`
	PhoneRegion        string      `json:"phone_region"`
	ShutdownTimeoutSec int         `json:"shutdown_timeout_sec"`
	Admin              AdminConfig `json:"admin"`
}

// AdminConfig describes an optional account created at startup.
type AdminConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

const (
	defaultAddr            = "0.0.0.0"
	defaultPort            = 8080
	defaultDBStr           = "postgresql://todos:todos@db:5432/todos?sslmode=disable"
	defaultMigratePath     = "migrations"
	defaultPhoneRegion     = "US"
	defaultShutdownTimeout = 30
	defaultEnvFile         = ".env"
)

var supportedAlgorithms = []interface{}{"HS256", "HS384", "HS512"}

func DefaultConfig() *Config {
	return &Config{
		Addr:               defaultAddr,
		Port:               defaultPort,
		DBStr:              defaultDBStr,
		MigratePath:        defaultMigratePath,
		BcryptCost:         bcrypt.DefaultCost,
		PhoneRegion:        defaultPhoneRegion,
		ShutdownTimeoutSec: defaultShutdownTimeout,
	}
}

// ReadConfig layers, from lowest to highest precedence: defaults, the JSON
// file given by -c or CONFIG, the environment (the .env file only fills
// unset variables) and explicitly passed flags. The result is validated
// before it is returned.
func ReadConfig(args []string) (*Config, error) {
	flags := flag.NewFlagSet("todos", flag.ContinueOnError)
	addr := flags.String("addr", defaultAddr, "server address")
	port := flags.Int("port", defaultPort, "server port")
	dbstr := flags.String("dbstr", defaultDBStr, "database connection string")
	dbDsn := flags.String("dbdsn", "", "database DSN, takes precedence over -dbstr")
	migratePath := flags.String("migratepath", defaultMigratePath, "path to the migrations directory")
	configFile := flags.String("c", "", "path to a JSON config file")
	envFile := flags.String("env", defaultEnvFile, "path to a .env file")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	loadDotEnv(*envFile)

	cfg := DefaultConfig()
	loadJSONConfig(*configFile, cfg)
	applyEnvOverrides(cfg)

	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "port":
			cfg.Port = *port
		case "dbstr":
			if *dbDsn == "" {
				cfg.DBStr = *dbstr
			}
		case "dbdsn":
			cfg.DBStr = *dbDsn
		case "migratepath":
			cfg.MigratePath = *migratePath
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.DBStr, validation.Required),
		validation.Field(&c.SecretKey, validation.Required),
		validation.Field(&c.Algorithm, validation.Required, validation.In(supportedAlgorithms...)),
		validation.Field(&c.BcryptCost, validation.Required, validation.Min(bcrypt.MinCost), validation.Max(bcrypt.MaxCost)),
		validation.Field(&c.PhoneRegion, validation.Required, validation.Length(2, 2)),
		validation.Field(&c.ShutdownTimeoutSec, validation.Min(0)),
		validation.Field(&c.Admin),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domainerrors.ErrConfigInvalidFormat, err)
	}
	return nil
}

func (a AdminConfig) Validate() error {
	if a.Username == "" {
		return nil
	}
	return validation.ValidateStruct(&a,
		validation.Field(&a.Password, validation.Required, validation.Length(6, 72)),
		validation.Field(&a.Email, validation.Required),
	)
}

func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Addr, strconv.Itoa(c.Port))
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSec) * time.Second
}

// loadDotEnv never overrides variables already present in the environment.
func loadDotEnv(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load env file", "path", path, "err", err)
	}
}

func loadJSONConfig(configPath string, cfg *Config) {
	if configPath == "" {
		configPath = os.Getenv("CONFIG")
	}
	if configPath == "" {
		return
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		slog.Warn(domainerrors.ErrConfigFileReadFailed.Error(), "path", configPath, "err", err)
		return
	}

	// Decode into a copy so a half-parsed file leaves cfg untouched.
	parsed := *cfg
	if err := json.Unmarshal(data, &parsed); err != nil {
		slog.Warn(domainerrors.ErrConfigParseFailed.Error(), "path", configPath, "err", err)
		return
	}
	*cfg = parsed
	slog.Info("JSON config loaded", "path", configPath)
}

func applyEnvOverrides(cfg *Config) {
	if addr := os.Getenv("ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if port, ok := envInt("PORT"); ok {
		cfg.Port = port
	}
	if dbStr := os.Getenv("DB_STR"); dbStr != "" {
		cfg.DBStr = dbStr
	}
	if migratePath := os.Getenv("MIGRATE_PATH"); migratePath != "" {
		cfg.MigratePath = migratePath
	}

	if cfg.DBStr == defaultDBStr {
		dbUser := os.Getenv("DB_USER")
		dbPassword := os.Getenv("DB_PASSWORD")
		dbName := os.Getenv("DB_NAME")
		dbHost := os.Getenv("DB_HOST")
		dbPort := os.Getenv("DB_PORT")
		if dbUser != "" && dbPassword != "" && dbName != "" && dbHost != "" && dbPort != "" {
			cfg.DBStr = fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPassword, dbHost, dbPort, dbName)
		}
	}

	if key := os.Getenv("SECRET_KEY"); key != "" {
		cfg.SecretKey = key
	}
	if alg := os.Getenv("ALGORITHM"); alg != "" {
		cfg.Algorithm = alg
	}
	if cost, ok := envInt("BCRYPT_COST"); ok {
		cfg.BcryptCost = cost
	}
	if region := os.Getenv("PHONE_REGION"); region != "" {
		cfg.PhoneRegion = region
	}
	if timeout, ok := envInt("SHUTDOWN_TIMEOUT_SEC"); ok {
		cfg.ShutdownTimeoutSec = timeout
	}

	if username := os.Getenv("ADMIN_USERNAME"); username != "" {
		cfg.Admin.Username = username
	}
	if password := os.Getenv("ADMIN_PASSWORD"); password != "" {
		cfg.Admin.Password = password
	}
	if email := os.Getenv("ADMIN_EMAIL"); email != "" {
		cfg.Admin.Email = email
	}
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn(domainerrors.ErrConfigInvalidFormat.Error(), "key", key, "value", raw)
		return 0, false
	}
	return n, true
}
