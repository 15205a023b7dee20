package infra

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix env prefix for viper
const EnvPrefix = "GOAPP"

// runtime environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DatabaseConfig database section
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" json:"driver" yaml:"driver" validate:"oneof=mysql postgres sqlite"`  // driver name
	Host     string `mapstructure:"host" json:"host" yaml:"host"`                                                // server host
	MaxConn  int32  `mapstructure:"maxconn" json:"maxconn" yaml:"maxconn" validate:"min=1"`                      // maximum opening connections number
	Password string `mapstructure:"password" json:"-" yaml:"password"`                                           // db password
	Port     int    `mapstructure:"port" json:"port" yaml:"port"`                                                // server port
	Protocol string `mapstructure:"protocol" json:"protocol" yaml:"protocol" validate:"omitempty,oneof=tcp udp"` // connection protocol, eg.tcp
	Query    string `mapstructure:"query" json:"query" yaml:"query"`                                             // DSN query parameter
	Schema   string `mapstructure:"schema" json:"schema" yaml:"schema" validate:"required"`                      // use schema, or file path for sqlite
	User     string `mapstructure:"username" json:"username" yaml:"username"`                                    // db username
	Migrate  bool   `mapstructure:"migrate" json:"migrate" yaml:"migrate"`                                       // apply embedded migrations on start
}

// AppConfig App option object
type AppConfig struct {
	AppID          string         `mapstructure:"app_id" json:"app_id" yaml:"app_id" validate:"required"`            // Application ID
	Host           string         `mapstructure:"host" json:"host" yaml:"host"`                                      // bind host address
	Port           int            `mapstructure:"port" json:"port" yaml:"port"`                                      // bind listen port
	Env            string         `mapstructure:"env" json:"env" yaml:"env" validate:"oneof=development production"` // runtime environment
	SessionTimeout time.Duration  `mapstructure:"session_timeout" json:"session_timeout" yaml:"session_timeout"`
	SessionRefresh time.Duration  `mapstructure:"session_refresh" json:"session_refresh" yaml:"session_refresh"` // session refresh threshold
	RequestTimeout time.Duration  `mapstructure:"request_timeout" json:"request_timeout" yaml:"request_timeout"` // per request deadline, 0 disables it
	Timezone       string         `mapstructure:"timezone" json:"timezone" yaml:"timezone"`                      // IANA zone deciding "today", empty for server local
	Locale         string         `mapstructure:"locale" json:"locale" yaml:"locale" validate:"oneof=en zh"`     // validation message language
	Database       DatabaseConfig `mapstructure:"database" json:"database" yaml:"database"`
	Logging        struct {
		FilePath string `mapstructure:"file_path" json:"file_path" yaml:"file_path"`                            // log file path
		Level    string `mapstructure:"level" json:"level" yaml:"level" validate:"oneof=debug info warn error"` // global logging level
	} `mapstructure:"logging" json:"logging" yaml:"logging"`
	Security struct {
		IDLength         int           `mapstructure:"id_length" json:"id_length" yaml:"id_length" validate:"min=8"` // length of generated ID for entities
		JWTMethod        string        `mapstructure:"jwt_method" json:"jwt_method" yaml:"jwt_method" validate:"oneof=HS256 HS384 HS512"`
		JWTSecret        string        `mapstructure:"jwt_secret" json:"-" yaml:"jwt_secret" validate:"required"`
		TokenName        string        `mapstructure:"token_name" json:"token_name" yaml:"token_name" validate:"required"`     // jwt token name set in cookie
		MaxLoginAttempts int           `mapstructure:"max_login_attempts" json:"max_login_attempts" yaml:"max_login_attempts"` // maximum login attempts
		RetryTimeout     time.Duration `mapstructure:"retry_timeout" json:"retry_timeout" yaml:"retry_timeout"`                // retry wait
	} `mapstructure:"security" json:"security" yaml:"security"`
	KVStore struct {
		Host     string `mapstructure:"host" json:"host" yaml:"host"` // redis host, empty for the in-process store
		Port     int    `mapstructure:"port" json:"port" yaml:"port"`
		Password string `mapstructure:"password" json:"-" yaml:"password"`
	} `mapstructure:"kv" json:"kv" yaml:"kv"`
	DevOP struct {
		APM bool `mapstructure:"apm" json:"apm" yaml:"apm"`
	} `mapstructure:"devop" json:"devop" yaml:"devop"`
}

// InitConfig init app config from .env, command line and environment
func InitConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	config, err := LoadConfig(os.Args[1:])
	if err != nil {
		return nil, err
	}
	if config.Logging.Level == "debug" {
		if configJSON, err := json.MarshalIndent(config, "", "  "); err == nil {
			log.Printf("App config: %s\n", string(configJSON))
		}
	}
	return config, nil
}

// LoadConfig parse args and GOAPP_* env into a validated AppConfig
func LoadConfig(args []string) (*AppConfig, error) {
	flags := pflag.NewFlagSet("wellbeing", pflag.ContinueOnError)

	// app
	flags.String("host", "", "binding address")
	flags.String("app_id", "", "application identifier (required)")
	flags.String("env", EnvDevelopment, "runtime environment, can be 'development' or 'production'")
	flags.Int("port", 8081, "listening port")
	flags.Duration("session_timeout", 24*time.Hour, "JWT lifetime(m, s and h units are supported), eg.30m")
	flags.Duration("session_refresh", 30*time.Minute, "session refresh threshold(m, s and h units are supported), eg.5m")
	flags.Duration("request_timeout", 15*time.Second, "request deadline, 0 to disable")
	flags.String("timezone", "", "IANA timezone used to decide the current day, eg.Asia/Shanghai (defaults to server local)")
	flags.String("locale", "en", "validation message language, 'en' or 'zh'")

	// database
	flags.String("database.driver", "sqlite", "database driver to use, one of mysql, postgres, sqlite")
	flags.String("database.host", "127.0.0.1", "database host")
	flags.Int("database.port", 3306, "database server port")
	flags.String("database.protocol", "", "connection protocol(if mysql is used, this flag must be set), eg.tcp")
	flags.String("database.username", "", "database username (required for mysql and postgres)")
	flags.String("database.password", "", "database password (required for mysql and postgres)")
	flags.String("database.schema", "wellbeing.db", "database schema, or database file path for sqlite")
	flags.String("database.query", "", "additional DSN query parameters('?' is auto prefixed)")
	flags.Int32("database.maxconn", 20, `max connection count, if you encounter a "too many connections" error, please consider
increasing the max_connection value of your db server, or lower this value`)
	flags.Bool("database.migrate", true, "apply embedded schema migrations on start")

	// logging
	flags.String("logging.level", "info", "logging level")
	flags.String("logging.file_path", "", "log to file")

	// security
	flags.Int("security.id_length", 21, "set length of generated ID for entities")
	flags.String("security.jwt_method", "HS256", "hash algorithm used for JWT auth")
	flags.String("security.jwt_secret", "", "JWT secret (required)")
	flags.String("security.token_name", "wellbeing_token", "cookie name to store the token")
	flags.Int("security.max_login_attempts", 5, "maximum login attempts, 0 disables the lockout")
	flags.Duration("security.retry_timeout", 1*time.Hour, "retry wait")

	// kv storage
	flags.String("kv.host", "", "redis host, leave empty to keep token blacklist in process")
	flags.Int("kv.port", 6379, "kv server port")
	flags.String("kv.password", "", "kv server password")

	// DevOp
	flags.Bool("devop.apm", false, "enable apm metrics")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.BindPFlags(flags)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config = new(AppConfig)
	if err := v.Unmarshal(config); err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *AppConfig) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("yaml")
		if name == "-" || name == "" {
			return ""
		}
		return name
	})

	var msg []string
	if err := validate.Struct(config); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("failed to validate config: %w", err)
		}
		for _, field := range verrs {
			namespace := field.Namespace()
			fieldName := namespace[strings.IndexByte(namespace, '.')+1:] // trim top level namespace
			switch field.Tag() {
			case "required":
				msg = append(msg, fmt.Sprintf("%s is required", fieldName))
			case "oneof":
				msg = append(msg, fmt.Sprintf("%s must be one of (%s)", fieldName, field.Param()))
			case "min":
				msg = append(msg, fmt.Sprintf("%s must be at least %s", fieldName, field.Param()))
			default:
				msg = append(msg, fmt.Sprintf("%s is invalid", fieldName))
			}
		}
	}

	if db := config.Database; db.Driver != "sqlite" {
		if db.Host == "" {
			msg = append(msg, "database.host is required")
		}
		if db.User == "" {
			msg = append(msg, "database.username is required")
		}
		if db.Password == "" {
			msg = append(msg, "database.password is required")
		}
	}
	if config.Timezone != "" {
		if _, err := time.LoadLocation(config.Timezone); err != nil {
			msg = append(msg, fmt.Sprintf("timezone %q is unknown", config.Timezone))
		}
	}

	if len(msg) > 0 {
		return fmt.Errorf("failed to validate config: \n%s", strings.Join(msg, "\n"))
	}
	return nil
}
