package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database engines
const (
	EngineMongo  = "mongodb"
	EngineBolt   = "bolt"
	EngineMemory = "memory"
)

type (
	Config struct {
		Env                       string // DEV (local; default), TEST, QA, PROD
		Build                     string
		AppName                   string
		Debug                     bool
		TestMode                  bool
		WorkDir                   string
		SecretKey                 string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		PasswordResetTimeoutDelta time.Duration
		DefaultFromEmail          mail.Address
		FrontendBaseURL           string
		RollbarToken              string
		SendgridApiKey            string

		Server   ServerConfig
		Database DatabaseConfig
		APIKeys  APIKeysConfig
		Files    FilesConfig
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
		CORSOrigins     []string
	}

	DatabaseConfig struct {
		Engine  string // mongodb | bolt | memory
		URI     string
		Name    string
		Path    string // bolt file
		Timeout time.Duration
	}

	// APIKeysConfig holds the static key of each role; an empty key is disabled.
	APIKeysConfig struct {
		Admin     string
		Direction string
		Teacher   string
		Parent    string
		Student   string
	}

	FilesConfig struct {
		Backend     string // b2 | local
		Dir         string
		BaseURL     string
		B2AccountID string
		B2AppKey    string
		B2Bucket    string
		MaxSize     int64
	}
)

// NewConfig loads the configuration of the current ENV once.
// Environment variables are prefixed by the env name, e.g. PROD_SECRETKEY.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Masomo")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("defaultFromEmail", "Masomo <noreply@localhost>")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.corsOrigins", []string{"http://localhost:3000"})

	v.SetDefault("database.engine", EngineMongo)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "masomo")
	v.SetDefault("database.path", "masomo.db")
	v.SetDefault("database.timeout", 10*time.Second)

	v.SetDefault("apiKeys.admin", "")
	v.SetDefault("apiKeys.direction", "")
	v.SetDefault("apiKeys.teacher", "")
	v.SetDefault("apiKeys.parent", "")
	v.SetDefault("apiKeys.student", "")

	v.SetDefault("files.backend", "local")
	v.SetDefault("files.dir", "uploads")
	v.SetDefault("files.baseURL", "http://localhost:8000/uploads")
	v.SetDefault("files.b2AccountID", "")
	v.SetDefault("files.b2AppKey", "")
	v.SetDefault("files.b2Bucket", "")
	v.SetDefault("files.maxSize", int64(10<<20))

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
		v.SetDefault("database.engine", EngineMemory)
	} else {
		v.SetDefault("testMode", false)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		Env:                       env,
		Build:                     v.GetString("build"),
		AppName:                   v.GetString("appName"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		WorkDir:                   wd,
		SecretKey:                 v.GetString("secretKey"),
		JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
		JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		DefaultFromEmail:          *from,
		FrontendBaseURL:           strings.TrimSuffix(v.GetString("frontendBaseURL"), "/"),
		RollbarToken:              v.GetString("rollbarToken"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			CORSOrigins:     v.GetStringSlice("server.corsOrigins"),
		},
		Database: DatabaseConfig{
			Engine:  v.GetString("database.engine"),
			URI:     v.GetString("database.uri"),
			Name:    v.GetString("database.name"),
			Path:    v.GetString("database.path"),
			Timeout: v.GetDuration("database.timeout"),
		},
		APIKeys: APIKeysConfig{
			Admin:     v.GetString("apiKeys.admin"),
			Direction: v.GetString("apiKeys.direction"),
			Teacher:   v.GetString("apiKeys.teacher"),
			Parent:    v.GetString("apiKeys.parent"),
			Student:   v.GetString("apiKeys.student"),
		},
		Files: FilesConfig{
			Backend:     v.GetString("files.backend"),
			Dir:         v.GetString("files.dir"),
			BaseURL:     strings.TrimSuffix(v.GetString("files.baseURL"), "/"),
			B2AccountID: v.GetString("files.b2AccountID"),
			B2AppKey:    v.GetString("files.b2AppKey"),
			B2Bucket:    v.GetString("files.b2Bucket"),
			MaxSize:     v.GetInt64("files.maxSize"),
		},
	}
}

// NewTestConfig returns the configuration used by test suites.
func NewTestConfig() *Config {
	_ = os.Setenv("ENV", "TEST")
	conf := NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.Database.Engine = EngineMemory
	conf.SecretKey = "test-secret"
	conf.APIKeys = APIKeysConfig{
		Admin:     "admin-key",
		Direction: "direction-key",
		Teacher:   "teacher-key",
		Parent:    "parent-key",
		Student:   "student-key",
	}
	return conf
}
