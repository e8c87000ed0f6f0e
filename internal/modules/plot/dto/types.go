package dto

import (
	conndto "connviewer/internal/modules/connectivity/dto"
	"connviewer/internal/modules/plot/domain"
)

type FiguresInput struct {
	Connectivity conndto.ConnectivityInput `json:"connectivity"`
}

// FiguresOutput holds the charts for one cell. A nil figure is hidden.
type FiguresOutput struct {
	Depth   *domain.Figure `json:"depth,omitempty"`
	Bar     *domain.Figure `json:"bar,omitempty"`
	Message string         `json:"message,omitempty"`
}
