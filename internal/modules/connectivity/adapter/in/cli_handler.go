package in

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"connviewer/internal/modules/connectivity/dto"
	connin "connviewer/internal/modules/connectivity/port/in"
)

type CLIHandler struct {
	usecase connin.Usecase
}

func NewCLIHandler(usecase connin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Connectivity(ctx context.Context, id, idType string, live bool, cellTypeTable string) (dto.ConnectivityOutput, error) {
	return h.usecase.Connectivity(ctx, dto.ConnectivityInput{
		AnnoID:        id,
		IDType:        idType,
		LiveQuery:     live,
		CellTypeTable: cellTypeTable,
	})
}

func (h CLIHandler) Info(ctx context.Context) (dto.InfoCache, error) {
	return h.usecase.Info(ctx)
}

func (h CLIHandler) CellTypeTables(ctx context.Context) []dto.Option {
	return h.usecase.CellTypeTables(ctx)
}

func (h CLIHandler) CellTypeTable(ctx context.Context, table, cellType string, live bool) (dto.Table, error) {
	return h.usecase.CellTypeTable(ctx, dto.CellTypeTableInput{Table: table, CellType: cellType, LiveQuery: live})
}

// WriteTable prints a table as tab separated values or as JSON rows.
func WriteTable(w io.Writer, table dto.Table, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(table.Rows)
	case "tsv", "":
		if _, err := fmt.Fprintln(w, strings.Join(table.Columns, "\t")); err != nil {
			return err
		}
		for _, row := range table.Rows {
			cells := make([]string, len(table.Columns))
			for i, col := range table.Columns {
				cells[i] = Cell(row[col])
			}
			if _, err := fmt.Fprintln(w, strings.Join(cells, "\t")); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (tsv|json)", format)
	}
}

// Cell renders one table value for display.
func Cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%.2f", t)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
