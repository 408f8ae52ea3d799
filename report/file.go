// Package report writes a finished run report to its sinks.
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gookit/slog"

	"migrateData/model"
	"migrateData/util"
)

// WriteFile writes rep to filename as JSON when the name ends in .json and
// as the text report otherwise.
func WriteFile(filename string, rep *model.Report) error {
	var data []byte
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		var err error
		data, err = json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("WriteFile -> %w", err)
		}
	} else {
		data = []byte(rep.Text())
	}
	if err := util.WriteFile(filename, data); err != nil {
		return err
	}
	slog.Infof("report written to %s", filename)
	return nil
}
