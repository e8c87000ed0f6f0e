package domain

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type counterIDs struct{ n int }

func (c *counterIDs) New() string {
	c.n++
	return "a" + strconv.Itoa(c.n)
}

func TestAnnotationLayerGroupsIntoCollections(t *testing.T) {
	layer := AnnotationLayer{
		Name: "syns",
		Mapper: PointMapper{
			PointColumn:              "pos",
			LinkedSegmentationColumn: "root_id",
			GroupColumn:              "root_id",
			Multipoint:               true,
			SetPosition:              true,
		},
		LinkedSegmentationLayer: "seg",
		FilterBySegmentation:    true,
	}
	rows := []Row{
		{"root_id": "10", "pos": [][]float64{{1, 2, 3}, {4, 5, 6}}},
		{"root_id": "20", "pos": [][]float64{{7, 8, 9}}},
	}
	out, position := layer.render(rows, &counterIDs{})

	if diff := cmp.Diff([]float64{1, 2, 3}, position); diff != "" {
		t.Fatalf("position mismatch (-want +got):\n%s", diff)
	}
	annotations := out["annotations"].([]map[string]any)
	if len(annotations) != 4 {
		t.Fatalf("got %d annotations, want 3 points and 1 collection", len(annotations))
	}
	collection := annotations[3]
	if collection["type"] != "collection" || collection["id"] != "a4" {
		t.Fatalf("collection = %v", collection)
	}
	if diff := cmp.Diff([]string{"a1", "a2"}, collection["childAnnotationIds"]); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
	if annotations[0]["parentId"] != "a4" || annotations[1]["parentId"] != "a4" {
		t.Fatalf("grouped points lack parent: %v %v", annotations[0], annotations[1])
	}
	if _, ok := annotations[2]["parentId"]; ok {
		t.Fatalf("single point should not be grouped: %v", annotations[2])
	}
	if out["filterBySegmentation"] != true || out["linkedSegmentationLayer"] != "seg" {
		t.Fatalf("layer = %v", out)
	}
}

func TestAnnotationLayerSinglePointMapper(t *testing.T) {
	layer := AnnotationLayer{Name: "cells", Mapper: PointMapper{PointColumn: "pos"}}
	out, position := layer.render([]Row{{"pos": [][]float64{{1, 2, 3}, {4, 5, 6}}}}, &counterIDs{})
	if position != nil {
		t.Fatalf("position set without SetPosition: %v", position)
	}
	if n := len(out["annotations"].([]map[string]any)); n != 1 {
		t.Fatalf("got %d annotations, want 1", n)
	}
}

func TestSegmentationLayerSegments(t *testing.T) {
	layer := SegmentationLayer{
		Name:              "seg",
		Source:            "graphene://seg",
		SelectedIDsColumn: "root_id",
		FixedIDs:          []string{"1"},
		FixedIDColors:     []string{"#ffffff"},
		Alpha3D:           0.8,
	}
	out, _ := layer.render([]Row{{"root_id": "2"}, {"root_id": "1"}, {"root_id": "0"}}, nil)
	if diff := cmp.Diff([]string{"1", "2"}, out["segments"]); diff != "" {
		t.Fatalf("segments mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"1": "#ffffff"}, out["segmentColors"]); diff != "" {
		t.Fatalf("colors mismatch (-want +got):\n%s", diff)
	}
	if _, ok := out["timestamp"]; ok {
		t.Fatalf("unexpected timestamp: %v", out)
	}
}

func TestChainedBuilderBindsRowsPerBuilder(t *testing.T) {
	chain := ChainedBuilder{Builders: []StateBuilder{
		{Layers: []Layer{ImageLayer{Name: "img", Source: "precomputed://img"}}, URLPrefix: "https://viewer"},
		{Layers: []Layer{AnnotationLayer{Name: "A", Mapper: PointMapper{PointColumn: "pos", SetPosition: true}}}},
		{Layers: []Layer{AnnotationLayer{Name: "B", Mapper: PointMapper{PointColumn: "pos", SetPosition: true}}}},
	}}
	state := chain.Render([][]Row{nil, {{"pos": []float64{1, 1, 1}}}, {{"pos": []float64{2, 2, 2}}}}, &counterIDs{})

	if len(state.Layers) != 3 {
		t.Fatalf("got %d layers, want 3", len(state.Layers))
	}
	if chain.URLPrefix() != "https://viewer" {
		t.Fatalf("URLPrefix = %q", chain.URLPrefix())
	}
	if diff := cmp.Diff([]float64{2, 2, 2}, state.Navigation.Pose.Position.VoxelCoordinates); diff != "" {
		t.Fatalf("last builder should place the camera (-want +got):\n%s", diff)
	}
}
