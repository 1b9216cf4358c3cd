package main

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/aaarash/nemo/pkg/db"
	formDB "github.com/aaarash/nemo/pkg/db/form"
	responseDB "github.com/aaarash/nemo/pkg/db/response"
	"github.com/aaarash/nemo/pkg/utils"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_FORM_DB_USERNAME     = "FORM_DB_USERNAME"
	ENV_FORM_DB_PASSWORD     = "FORM_DB_PASSWORD"
	ENV_RESPONSE_DB_USERNAME = "RESPONSE_DB_USERNAME"
	ENV_RESPONSE_DB_PASSWORD = "RESPONSE_DB_PASSWORD"
)

type ResponseExportTask struct {
	InstanceID        string   `json:"instance_id" yaml:"instance_id"`
	MissionID         string   `json:"mission_id" yaml:"mission_id"`
	FormIDs           []string `json:"form_ids" yaml:"form_ids"` // empty exports all published forms of the mission
	ExportFormat      string   `json:"export_format" yaml:"export_format"` // wide, long or json
	QuestionOptionSep string   `json:"question_option_sep" yaml:"question_option_sep"`
	PreferredLocales  []string `json:"preferred_locales" yaml:"preferred_locales"`
}

type config struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// DB configs
	DBConfigs struct {
		FormDB     db.DBConfigYaml `json:"form_db" yaml:"form_db"`
		ResponseDB db.DBConfigYaml `json:"response_db" yaml:"response_db"`
	} `json:"db_configs" yaml:"db_configs"`

	ExportPath string `json:"export_path" yaml:"export_path"`

	ExportTasks []ResponseExportTask `json:"export_tasks" yaml:"export_tasks"`
}

var conf config

var (
	formDBService     *formDB.FormDBService
	responseDBService *responseDB.ResponseDBService
)

func init() {
	// Read config from file
	yamlFile, err := os.ReadFile(os.Getenv(ENV_CONFIG_FILE_PATH))
	if err != nil {
		panic(err)
	}

	err = yaml.UnmarshalStrict(yamlFile, &conf)
	if err != nil {
		panic(err)
	}

	// Init logger:
	utils.InitLogger(
		"response-export",
		conf.Logging.LogLevel,
		conf.Logging.IncludeSrc,
		conf.Logging.LogToFile,
		conf.Logging.Filename,
		conf.Logging.MaxSize,
		conf.Logging.MaxAge,
		conf.Logging.MaxBackups,
		conf.Logging.CompressOldLogs,
		conf.Logging.IncludeBuildInfo,
	)

	// Override secrets from environment variables
	secretsOverride()

	// init db
	initDBs()

	if conf.ExportPath == "" {
		err := fmt.Errorf("export path must be set to define where to store the export files")
		slog.Error("Error reading config", slog.String("error", err.Error()))
		panic(err)
	}

	if _, err := os.Stat(conf.ExportPath); os.IsNotExist(err) {
		// create folder
		err = os.MkdirAll(conf.ExportPath, os.ModePerm)
		if err != nil {
			slog.Error("Error creating export path", slog.String("error", err.Error()))
			panic(err)
		}
		slog.Info("Created export path", slog.String("path", conf.ExportPath))
	}
}

func secretsOverride() {
	// Override secrets from environment variables

	if dbUsername := os.Getenv(ENV_FORM_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.FormDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_FORM_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.FormDB.Password = dbPassword
	}

	if dbUsername := os.Getenv(ENV_RESPONSE_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.ResponseDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_RESPONSE_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.ResponseDB.Password = dbPassword
	}
}

func initDBs() {
	instanceIDs := getInstanceIDs()

	var err error
	formDBService, err = formDB.NewFormDBService(db.DBConfigFromYamlObj(conf.DBConfigs.FormDB, instanceIDs))
	if err != nil {
		slog.Error("Error connecting to Form DB", slog.String("error", err.Error()))
		panic(err)
	}

	responseDBService, err = responseDB.NewResponseDBService(db.DBConfigFromYamlObj(conf.DBConfigs.ResponseDB, instanceIDs))
	if err != nil {
		slog.Error("Error connecting to Response DB", slog.String("error", err.Error()))
		panic(err)
	}
}

func getInstanceIDs() []string {
	instanceIDs := []string{}
	for _, task := range conf.ExportTasks {
		instanceIDs = append(instanceIDs, task.InstanceID)
	}
	return instanceIDs
}
