package usecase

import (
	conndto "connviewer/internal/modules/connectivity/dto"
	"connviewer/internal/modules/link/domain"
	"connviewer/internal/platform/config"
)

const (
	imageLayerName = "img"
	segLayerName   = "seg"
	cellColor      = "#ffffff"
	alpha3D        = 0.8
)

// columns are the table column names link builders read.
type columns struct {
	rootID      string
	numSyn      string
	synPosition string
	somaRootID  string
	somaPos     string
	cellType    string
}

func columnsFrom(cfg config.Config) columns {
	return columns{
		rootID:      cfg.Common.RootIDCol,
		numSyn:      cfg.Common.NumSynCol,
		synPosition: cfg.Common.SynPtPosition,
		somaRootID:  cfg.Common.SomaPtRootID,
		somaPos:     cfg.Common.SomaPtPosition,
		cellType:    cfg.Typed.CellTypeColumn,
	}
}

func imageLayer(info conndto.InfoCache) domain.ImageLayer {
	return domain.ImageLayer{
		Name:             imageLayerName,
		Source:           info.ImageSource,
		ContrastControls: true,
		Black:            info.ImageBlack,
		White:            info.ImageWhite,
	}
}

func segLayer(info conndto.InfoCache) domain.SegmentationLayer {
	return domain.SegmentationLayer{
		Name:      segLayerName,
		Source:    info.SegmentationSource,
		Alpha3D:   alpha3D,
		Timestamp: info.NGLTimestamp,
	}
}

func withCell(seg domain.SegmentationLayer, info conndto.InfoCache, color string) domain.SegmentationLayer {
	if info.RootID != "" {
		seg.FixedIDs = []string{info.RootID}
		seg.FixedIDColors = []string{color}
	}
	return seg
}

// baseBuilder shows every synapse of the rows, selecting all partners.
func baseBuilder(info conndto.InfoCache, c columns) domain.StateBuilder {
	seg := segLayer(info)
	seg.SelectedIDsColumn = c.rootID
	anno := domain.AnnotationLayer{
		Name: "syns",
		Mapper: domain.PointMapper{
			PointColumn:              c.synPosition,
			LinkedSegmentationColumn: c.rootID,
			GroupColumn:              c.rootID,
			Multipoint:               true,
			SetPosition:              true,
		},
		LinkedSegmentationLayer: seg.Name,
		FilterBySegmentation:    true,
	}
	return domain.StateBuilder{
		Layers:    []domain.Layer{imageLayer(info), seg, anno},
		URLPrefix: info.ViewerSite,
	}
}

// directionBuilder shows the cell with the synapses of every partner row.
func directionBuilder(info conndto.InfoCache, c columns, layerName string) domain.StateBuilder {
	seg := withCell(segLayer(info), info, cellColor)
	anno := domain.AnnotationLayer{
		Name: layerName,
		Mapper: domain.PointMapper{
			PointColumn:              c.synPosition,
			LinkedSegmentationColumn: c.rootID,
			Multipoint:               true,
			SetPosition:              true,
		},
		LinkedSegmentationLayer: seg.Name,
	}
	return domain.StateBuilder{
		Layers:    []domain.Layer{imageLayer(info), seg, anno},
		URLPrefix: info.ViewerSite,
	}
}

// groupedBuilder groups synapses by partner; with preselect the partners
// are selected too.
func groupedBuilder(info conndto.InfoCache, c columns, layerName string, preselect bool) domain.StateBuilder {
	seg := withCell(segLayer(info), info, cellColor)
	if preselect {
		seg.SelectedIDsColumn = c.rootID
	}
	anno := domain.AnnotationLayer{
		Name: layerName,
		Mapper: domain.PointMapper{
			PointColumn:              c.synPosition,
			LinkedSegmentationColumn: c.rootID,
			GroupColumn:              c.rootID,
			Multipoint:               true,
			SetPosition:              true,
		},
		LinkedSegmentationLayer: seg.Name,
		FilterBySegmentation:    true,
	}
	return domain.StateBuilder{
		Layers:    []domain.Layer{imageLayer(info), seg, anno},
		URLPrefix: info.ViewerSite,
	}
}

// cellTypeBuilder chains one annotation layer per cell type after the
// image and segmentation layers.
func cellTypeBuilder(info conndto.InfoCache, cellTypes []string, colors func(int) string, mapper domain.PointMapper, fixCell bool) domain.ChainedBuilder {
	seg := segLayer(info)
	if fixCell {
		seg = withCell(seg, info, "")
	}
	builders := []domain.StateBuilder{{
		Layers:    []domain.Layer{imageLayer(info), seg},
		URLPrefix: info.ViewerSite,
	}}
	for i, ct := range cellTypes {
		builders = append(builders, domain.StateBuilder{Layers: []domain.Layer{domain.AnnotationLayer{
			Name:                    ct,
			Color:                   colors(i),
			Mapper:                  mapper,
			LinkedSegmentationLayer: seg.Name,
		}}})
	}
	return domain.ChainedBuilder{Builders: builders}
}
