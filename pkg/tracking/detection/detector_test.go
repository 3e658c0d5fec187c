package detection

import (
	"testing"
)

func TestBoundingBox_Center(t *testing.T) {
	tests := []struct {
		name   string
		box    BoundingBox
		expect Point
	}{
		{
			name:   "centered on 1280x720 frame",
			box:    BoundingBox{X: 600, Y: 340, Width: 80, Height: 40},
			expect: Point{X: 640, Y: 360},
		},
		{
			name:   "top left corner",
			box:    BoundingBox{X: 0, Y: 0, Width: 20, Height: 20},
			expect: Point{X: 10, Y: 10},
		},
		{
			name:   "odd sizes truncate",
			box:    BoundingBox{X: 10, Y: 10, Width: 5, Height: 7},
			expect: Point{X: 12, Y: 13},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.box.Center()
			if got != tc.expect {
				t.Errorf("Center: got %+v, want %+v", got, tc.expect)
			}
		})
	}
}

func TestBoundingBox_Size(t *testing.T) {
	tests := []struct {
		name   string
		box    BoundingBox
		expect int
	}{
		{name: "wide", box: BoundingBox{Width: 80, Height: 40}, expect: 80},
		{name: "tall", box: BoundingBox{Width: 30, Height: 90}, expect: 90},
		{name: "empty", box: BoundingBox{}, expect: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.box.Size(); got != tc.expect {
				t.Errorf("Size: got %d, want %d", got, tc.expect)
			}
		})
	}
}

func TestSelectPrimary(t *testing.T) {
	tests := []struct {
		name       string
		detections []Detection
		expectNil  bool
		expectIdx  int
	}{
		{
			name:       "empty list",
			detections: []Detection{},
			expectNil:  true,
		},
		{
			name: "single detection",
			detections: []Detection{
				{Box: BoundingBox{X: 10, Y: 10, Width: 50, Height: 50}, Confidence: 0.9},
			},
			expectIdx: 0,
		},
		{
			name: "larger beats more confident",
			detections: []Detection{
				{Box: BoundingBox{Width: 40, Height: 40}, Confidence: 0.95},
				{Box: BoundingBox{Width: 120, Height: 60}, Confidence: 0.55},
			},
			expectIdx: 1,
		},
		{
			name: "tie keeps detector order",
			detections: []Detection{
				{Box: BoundingBox{X: 1, Width: 100, Height: 30}, Confidence: 0.6},
				{Box: BoundingBox{X: 2, Width: 30, Height: 100}, Confidence: 0.9},
			},
			expectIdx: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			best := SelectPrimary(tc.detections)
			if tc.expectNil {
				if best != nil {
					t.Errorf("SelectPrimary: expected nil, got %+v", best)
				}
				return
			}
			if best == nil {
				t.Fatal("SelectPrimary: expected non-nil, got nil")
			}
			if best != &tc.detections[tc.expectIdx] {
				t.Errorf("SelectPrimary: got %+v, want index %d", best, tc.expectIdx)
			}
		})
	}
}

func TestFilter_MatchClass(t *testing.T) {
	dets := []Detection{
		{Label: "Bullseye"},
		{Label: "person"},
		{Label: "bullseye_small"},
		{Label: "target"},
	}

	got := Filter(dets, MatchClass("bullseye"))
	if len(got) != 2 {
		t.Fatalf("Filter: got %d detections, want 2", len(got))
	}
	if got[0].Label != "Bullseye" || got[1].Label != "bullseye_small" {
		t.Errorf("Filter: unexpected order %+v", got)
	}

	if all := Filter(dets, nil); len(all) != len(dets) {
		t.Errorf("Filter(nil): got %d, want %d", len(all), len(dets))
	}
}

func TestMatchClass_BlankNameMatchesNothing(t *testing.T) {
	for _, name := range []string{"", "  "} {
		keep := MatchClass(name)
		for _, label := range []string{"bullseye", "person", ""} {
			if keep(label) {
				t.Errorf("MatchClass(%q) accepted %q", name, label)
			}
		}
	}
}
