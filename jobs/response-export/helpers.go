package main

import (
	"fmt"
	"strings"
	"time"
)

func exportFileName(formName string, format string) string {
	dateStr := time.Now().Format("2006-01-02")
	suffix := ""
	switch format {
	case "wide":
		suffix = "wide.csv"
	case "long":
		suffix = "long.csv"
	case "json":
		suffix = "json"
	}
	safeName := strings.ReplaceAll(strings.ToLower(formName), " ", "-")
	return fmt.Sprintf("%s##responses##%s##%s", dateStr, safeName, suffix)
}
