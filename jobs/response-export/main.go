package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	formDB "github.com/aaarash/nemo/pkg/db/form"
	"github.com/aaarash/nemo/pkg/form"
	formTypes "github.com/aaarash/nemo/pkg/form/types"
	"github.com/aaarash/nemo/pkg/response"
	"github.com/aaarash/nemo/pkg/response/exporter"
	respTypes "github.com/aaarash/nemo/pkg/response/types"
	"github.com/aaarash/nemo/pkg/utils"
)

func main() {
	slog.Info("Starting response export job")
	start := time.Now()

	for _, task := range conf.ExportTasks {
		if err := runExportTask(task); err != nil {
			slog.Error("Export task failed", slog.String("instanceID", task.InstanceID), slog.String("missionID", task.MissionID), slog.String("error", err.Error()))
		}
	}

	if err := formDBService.DBClient.Disconnect(context.Background()); err != nil {
		slog.Error("Error closing DB connection", slog.String("error", err.Error()))
	}
	if err := responseDBService.DBClient.Disconnect(context.Background()); err != nil {
		slog.Error("Error closing DB connection", slog.String("error", err.Error()))
	}
	slog.Info("Response export job completed", slog.String("duration", time.Since(start).String()))
}

func runExportTask(task ResponseExportTask) error {
	forms, err := formsForTask(task)
	if err != nil {
		return err
	}

	exportPath := conf.ExportPath
	if override := os.Getenv(utils.GenerateExportPathEnvVarName(task.MissionID)); override != "" {
		if err := os.MkdirAll(override, os.ModePerm); err != nil {
			return err
		}
		exportPath = override
	}

	for _, f := range forms {
		if err := exportForm(task, f, exportPath); err != nil {
			slog.Error("Error exporting form", slog.String("formID", f.ID), slog.String("error", err.Error()))
			continue
		}
	}
	return nil
}

func formsForTask(task ResponseExportTask) ([]formTypes.Form, error) {
	if len(task.FormIDs) > 0 {
		forms := make([]formTypes.Form, 0, len(task.FormIDs))
		for _, formID := range task.FormIDs {
			f, err := formDBService.GetFormByID(task.InstanceID, formID)
			if err != nil {
				slog.Error("Form not found", slog.String("formID", formID), slog.String("error", err.Error()))
				continue
			}
			forms = append(forms, f)
		}
		return forms, nil
	}
	return formDBService.GetFormsByMission(task.InstanceID, task.MissionID, true)
}

func exportForm(task ResponseExportTask, f formTypes.Form, exportPath string) error {
	scope := formDB.MissionScope{DB: formDBService, InstanceID: task.InstanceID, MissionID: task.MissionID}
	optionSets, err := scope.OptionSetsForForm(f)
	if err != nil {
		return err
	}
	tree, err := form.NewTree(&f, optionSets)
	if err != nil {
		return err
	}

	sep := task.QuestionOptionSep
	if sep == "" {
		sep = "|"
	}
	parser := exporter.NewResponseParser(tree, f.Name, task.PreferredLocales, sep)

	file, err := os.Create(filepath.Join(exportPath, exportFileName(f.Name, task.ExportFormat)))
	if err != nil {
		return err
	}
	defer file.Close()

	respExporter, err := exporter.NewResponseExporter(parser, file, task.ExportFormat)
	if err != nil {
		return err
	}

	svc := response.Service{Store: responseDBService, PreferredLocales: task.PreferredLocales}

	filter := bson.M{"missionId": task.MissionID, "formId": f.ID}
	sort := bson.M{"createdAt": 1}
	err = responseDBService.FindAndExecuteOnResponses(
		context.Background(),
		task.InstanceID,
		filter,
		sort,
		false,
		func(r respTypes.Response) error {
			nodes, err := svc.BuildForRender(task.InstanceID, tree, r)
			if err != nil {
				return err
			}
			return respExporter.WriteResponse(r, nodes)
		},
	)
	if err != nil {
		return err
	}

	if err := respExporter.Finish(); err != nil {
		return err
	}
	slog.Info("Form exported", slog.String("instanceID", task.InstanceID), slog.String("formID", f.ID), slog.String("format", task.ExportFormat))
	return nil
}
