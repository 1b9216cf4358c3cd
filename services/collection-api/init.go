package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v2"

	"github.com/aaarash/nemo/pkg/apihelpers"
	"github.com/aaarash/nemo/pkg/db"
	formDB "github.com/aaarash/nemo/pkg/db/form"
	responseDB "github.com/aaarash/nemo/pkg/db/response"
	"github.com/aaarash/nemo/pkg/utils"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	ENV_GIN_DEBUG_MODE             = "GIN_DEBUG_MODE"
	ENV_COLLECTION_API_LISTEN_PORT = "COLLECTION_API_LISTEN_PORT"
	ENV_CORS_ALLOW_ORIGINS         = "CORS_ALLOW_ORIGINS"

	ENV_COLLECTION_USER_JWT_SIGN_KEY   = "COLLECTION_USER_JWT_SIGN_KEY"
	ENV_COLLECTION_USER_JWT_EXPIRES_IN = "COLLECTION_USER_JWT_EXPIRES_IN"

	ENV_REQUIRE_MUTUAL_TLS     = "REQUIRE_MUTUAL_TLS"
	ENV_MUTUAL_TLS_SERVER_CERT = "MUTUAL_TLS_SERVER_CERT"
	ENV_MUTUAL_TLS_SERVER_KEY  = "MUTUAL_TLS_SERVER_KEY"
	ENV_MUTUAL_TLS_CA_CERT     = "MUTUAL_TLS_CA_CERT"

	ENV_INSTANCE_IDS       = "INSTANCE_IDS"
	ENV_PREFERRED_LOCALES  = "PREFERRED_LOCALES"
	ENV_MEDIA_STORAGE_PATH = "MEDIA_STORAGE_PATH"

	ENV_FORM_DB_CONNECTION_STR        = "FORM_DB_CONNECTION_STR"
	ENV_FORM_DB_USERNAME              = "FORM_DB_USERNAME"
	ENV_FORM_DB_PASSWORD              = "FORM_DB_PASSWORD"
	ENV_FORM_DB_CONNECTION_PREFIX     = "FORM_DB_CONNECTION_PREFIX"
	ENV_FORM_DB_NAME_PREFIX           = "FORM_DB_NAME_PREFIX"
	ENV_FORM_DB_TIMEOUT               = "FORM_DB_TIMEOUT"
	ENV_FORM_DB_IDLE_CONN_TIMEOUT     = "FORM_DB_IDLE_CONN_TIMEOUT"
	ENV_FORM_DB_USE_NO_CURSOR_TIMEOUT = "FORM_DB_USE_NO_CURSOR_TIMEOUT"
	ENV_FORM_DB_MAX_POOL_SIZE         = "FORM_DB_MAX_POOL_SIZE"

	ENV_RESPONSE_DB_CONNECTION_STR        = "RESPONSE_DB_CONNECTION_STR"
	ENV_RESPONSE_DB_USERNAME              = "RESPONSE_DB_USERNAME"
	ENV_RESPONSE_DB_PASSWORD              = "RESPONSE_DB_PASSWORD"
	ENV_RESPONSE_DB_CONNECTION_PREFIX     = "RESPONSE_DB_CONNECTION_PREFIX"
	ENV_RESPONSE_DB_NAME_PREFIX           = "RESPONSE_DB_NAME_PREFIX"
	ENV_RESPONSE_DB_TIMEOUT               = "RESPONSE_DB_TIMEOUT"
	ENV_RESPONSE_DB_IDLE_CONN_TIMEOUT     = "RESPONSE_DB_IDLE_CONN_TIMEOUT"
	ENV_RESPONSE_DB_USE_NO_CURSOR_TIMEOUT = "RESPONSE_DB_USE_NO_CURSOR_TIMEOUT"
	ENV_RESPONSE_DB_MAX_POOL_SIZE         = "RESPONSE_DB_MAX_POOL_SIZE"

	ENV_LOG_TO_FILE     = "LOG_TO_FILE"
	ENV_LOG_FILENAME    = "LOG_FILENAME"
	ENV_LOG_MAX_SIZE    = "LOG_MAX_SIZE"
	ENV_LOG_MAX_AGE     = "LOG_MAX_AGE"
	ENV_LOG_MAX_BACKUPS = "LOG_MAX_BACKUPS"
	ENV_LOG_LEVEL       = "LOG_LEVEL"
	ENV_LOG_INCLUDE_SRC = "LOG_INCLUDE_SRC"
)

var (
	formDBService     *formDB.FormDBService
	responseDBService *responseDB.ResponseDBService
)

type Config struct {
	// Gin configs
	GinDebugMode bool     `json:"gin_debug_mode" yaml:"gin_debug_mode"`
	AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
	Port         string   `json:"port" yaml:"port"`

	// JWT configs
	CollectionUserJWTSignKey   string        `json:"collection_user_jwt_sign_key" yaml:"collection_user_jwt_sign_key"`
	CollectionUserJWTExpiresIn time.Duration `json:"collection_user_jwt_expires_in" yaml:"collection_user_jwt_expires_in"`

	AllowedInstanceIDs []string `json:"allowed_instance_ids" yaml:"allowed_instance_ids"`
	PreferredLocales   []string `json:"preferred_locales" yaml:"preferred_locales"`
	MediaStoragePath   string   `json:"media_storage_path" yaml:"media_storage_path"`

	// Mutual TLS configs
	UseMTLS          bool                        `json:"use_mtls" yaml:"use_mtls"`
	CertificatePaths apihelpers.CertificatePaths `json:"certificate_paths" yaml:"certificate_paths"`

	FormDBConfig     db.DBConfig `json:"form_db_config" yaml:"form_db_config"`
	ResponseDBConfig db.DBConfig `json:"response_db_config" yaml:"response_db_config"`
}

func init() {
	initLogger()

	conf = initConfig()
	if !conf.GinDebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	initDBs()
}

func initLogger() {
	logMaxSize, _ := strconv.Atoi(os.Getenv(ENV_LOG_MAX_SIZE))
	logMaxAge, _ := strconv.Atoi(os.Getenv(ENV_LOG_MAX_AGE))
	logMaxBackups, _ := strconv.Atoi(os.Getenv(ENV_LOG_MAX_BACKUPS))

	utils.InitLogger(
		"collection-api",
		os.Getenv(ENV_LOG_LEVEL),
		os.Getenv(ENV_LOG_INCLUDE_SRC) == "true",
		os.Getenv(ENV_LOG_TO_FILE) == "true",
		os.Getenv(ENV_LOG_FILENAME),
		logMaxSize,
		logMaxAge,
		logMaxBackups,
		true,
		"",
	)
}

func initDBs() {
	var err error
	formDBService, err = formDB.NewFormDBService(conf.FormDBConfig)
	if err != nil {
		slog.Error("Error connecting to Form DB", slog.String("error", err.Error()))
		panic(err)
	}

	responseDBService, err = responseDB.NewResponseDBService(conf.ResponseDBConfig)
	if err != nil {
		slog.Error("Error connecting to Response DB", slog.String("error", err.Error()))
		panic(err)
	}
}

func initConfig() Config {
	conf := Config{}

	// Read config from file
	yamlFile, err := os.ReadFile(os.Getenv(ENV_CONFIG_FILE_PATH))
	if err != nil {
		fmt.Println("Error reading config file: " + err.Error())
		conf = Config{}
	}

	err = yaml.UnmarshalStrict(yamlFile, &conf)
	if err != nil {
		fmt.Println("Error reading config file: " + err.Error())
		conf = Config{}
	}

	conf.GinDebugMode = os.Getenv(ENV_GIN_DEBUG_MODE) == "true"
	conf.Port = os.Getenv(ENV_COLLECTION_API_LISTEN_PORT)
	conf.AllowOrigins = strings.Split(os.Getenv(ENV_CORS_ALLOW_ORIGINS), ",")

	// JWT configs
	conf.CollectionUserJWTSignKey = os.Getenv(ENV_COLLECTION_USER_JWT_SIGN_KEY)
	expInVal := os.Getenv(ENV_COLLECTION_USER_JWT_EXPIRES_IN)
	conf.CollectionUserJWTExpiresIn, err = utils.ParseDurationString(expInVal)
	if err != nil {
		slog.Error("error during initConfig", slog.String("error", err.Error()), ENV_COLLECTION_USER_JWT_EXPIRES_IN, expInVal)
		panic(err)
	}

	// Mutual TLS configs
	conf.UseMTLS = os.Getenv(ENV_REQUIRE_MUTUAL_TLS) == "true"
	conf.CertificatePaths = apihelpers.CertificatePaths{
		ServerCertPath: os.Getenv(ENV_MUTUAL_TLS_SERVER_CERT),
		ServerKeyPath:  os.Getenv(ENV_MUTUAL_TLS_SERVER_KEY),
		CACertPath:     os.Getenv(ENV_MUTUAL_TLS_CA_CERT),
	}

	// Form db configs
	conf.FormDBConfig = readFormDBConfig()

	// Response db configs
	conf.ResponseDBConfig = readResponseDBConfig()

	// Allowed instance IDs
	conf.AllowedInstanceIDs = readInstanceIDs()

	if locales := os.Getenv(ENV_PREFERRED_LOCALES); locales != "" {
		conf.PreferredLocales = strings.Split(locales, ",")
	}
	if len(conf.PreferredLocales) == 0 {
		conf.PreferredLocales = []string{"en"}
	}

	if path := os.Getenv(ENV_MEDIA_STORAGE_PATH); path != "" {
		conf.MediaStoragePath = path
	}
	if conf.MediaStoragePath == "" {
		conf.MediaStoragePath = "./media"
	}
	return conf
}

func readInstanceIDs() []string {
	return strings.Split(os.Getenv(ENV_INSTANCE_IDS), ",")
}

func readFormDBConfig() db.DBConfig {
	return db.ReadDBConfigFromEnv(
		"form DB",
		ENV_FORM_DB_CONNECTION_STR,
		ENV_FORM_DB_USERNAME,
		ENV_FORM_DB_PASSWORD,
		ENV_FORM_DB_CONNECTION_PREFIX,
		ENV_FORM_DB_TIMEOUT,
		ENV_FORM_DB_IDLE_CONN_TIMEOUT,
		ENV_FORM_DB_MAX_POOL_SIZE,
		ENV_FORM_DB_USE_NO_CURSOR_TIMEOUT,
		ENV_FORM_DB_NAME_PREFIX,
		readInstanceIDs(),
	)
}

func readResponseDBConfig() db.DBConfig {
	return db.ReadDBConfigFromEnv(
		"response DB",
		ENV_RESPONSE_DB_CONNECTION_STR,
		ENV_RESPONSE_DB_USERNAME,
		ENV_RESPONSE_DB_PASSWORD,
		ENV_RESPONSE_DB_CONNECTION_PREFIX,
		ENV_RESPONSE_DB_TIMEOUT,
		ENV_RESPONSE_DB_IDLE_CONN_TIMEOUT,
		ENV_RESPONSE_DB_MAX_POOL_SIZE,
		ENV_RESPONSE_DB_USE_NO_CURSOR_TIMEOUT,
		ENV_RESPONSE_DB_NAME_PREFIX,
		readInstanceIDs(),
	)
}
