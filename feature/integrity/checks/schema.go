package checks

import (
	"fmt"
	"reflect"
	"strings"

	"marker-sync/core/database"
	"marker-sync/feature/renderer/sqlstore"

	"gorm.io/gorm"
)

// SchemaReport is the result of a renderer schema check.
type SchemaReport struct {
	Matched bool                   `json:"matched"`
	Tables  map[string]TableReport `json:"tables"`
	Errors  []string               `json:"errors"`
}

// TableReport lists the problems of one table.
type TableReport struct {
	MissingColumns []string `json:"missing_columns"`
	TypeMismatches []string `json:"type_mismatches"`
	Status         string   `json:"status"` // "ok", "error"
}

// markerModels are the gorm models of the marker tables.
var markerModels = []any{sqlstore.RenderMap{}, sqlstore.MarkerSet{}, sqlstore.Marker{}}

// CheckRendererSchema compares the marker tables with their gorm models.
func CheckRendererSchema(db *gorm.DB) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &SchemaReport{
		Matched: true,
		Tables:  make(map[string]TableReport),
		Errors:  []string{},
	}
	for _, model := range markerModels {
		checkModel(db, model, report)
	}
	return report, nil
}

func checkModel(db *gorm.DB, model any, report *SchemaReport) {
	val := reflect.TypeOf(model)
	tabler, ok := model.(interface{ TableName() string })
	if !ok {
		report.Errors = append(report.Errors, fmt.Sprintf("%s does not implement TableName", val.Name()))
		report.Matched = false
		return
	}
	tableName := tabler.TableName()

	actualCols, err := database.GetTableColumns(db, tableName)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", tableName, err))
		report.Matched = false
		return
	}
	actual := make(map[string]database.ColumnInfo, len(actualCols))
	for _, col := range actualCols {
		actual[col.Field] = col
	}

	tbl := TableReport{
		MissingColumns: []string{},
		TypeMismatches: []string{},
		Status:         "ok",
	}
	for i := 0; i < val.NumField(); i++ {
		tag := val.Field(i).Tag.Get("gorm")
		colName := gormTagValue(tag, "column")
		if colName == "" {
			continue
		}

		col, exists := actual[colName]
		if !exists {
			tbl.MissingColumns = append(tbl.MissingColumns, colName)
			tbl.Status = "error"
			continue
		}

		// Only columns with an explicit type are compared.
		expType := strings.ToLower(gormTagValue(tag, "type"))
		if expType != "" && !strings.Contains(col.Type, expType) {
			tbl.TypeMismatches = append(tbl.TypeMismatches,
				fmt.Sprintf("%s: expected %s, got %s", colName, expType, col.Type))
			tbl.Status = "error"
		}
	}

	if tbl.Status != "ok" {
		report.Matched = false
	}
	report.Tables[tableName] = tbl
}

// gormTagValue returns the value of key in a gorm struct tag.
func gormTagValue(tag, key string) string {
	for _, part := range strings.Split(tag, ";") {
		if v, ok := strings.CutPrefix(part, key+":"); ok {
			return v
		}
	}
	return ""
}
