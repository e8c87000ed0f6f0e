package in

import (
	"context"

	"connviewer/internal/modules/connectivity/dto"
)

type Usecase interface {
	Connectivity(ctx context.Context, input dto.ConnectivityInput) (dto.ConnectivityOutput, error)
	Info(ctx context.Context) (dto.InfoCache, error)
	CellTypeTables(ctx context.Context) []dto.Option
	CellTypeTable(ctx context.Context, input dto.CellTypeTableInput) (dto.Table, error)
}
