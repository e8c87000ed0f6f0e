package dto

import conndto "connviewer/internal/modules/connectivity/dto"

// Tab names the partner table a link is built from.
type Tab string

const (
	TabPre  Tab = "tab-pre"
	TabPost Tab = "tab-post"
)

type SynapseLinkInput struct {
	Tab      Tab               `json:"tab"`
	Rows     []map[string]any  `json:"rows"`
	Selected []int             `json:"selected_rows"`
	Info     conndto.InfoCache `json:"info"`
}

type CellTypeLinkInput struct {
	Rows     []map[string]any  `json:"rows"`
	Selected []int             `json:"selected_rows"`
	Info     conndto.InfoCache `json:"info"`
	// Partners switches from cell type table rows to partner table rows.
	Partners   bool   `json:"partners"`
	Multipoint bool   `json:"multipoint"`
	FillNull   string `json:"fill_null,omitempty"`
}

type LinkOutput struct {
	URL      string `json:"url"`
	Uploaded bool   `json:"uploaded"`
}
