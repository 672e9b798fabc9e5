package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"wikiexplorer/internal/geo"
	"wikiexplorer/internal/model"
	"wikiexplorer/internal/util"
)

const (
	defaultMapSpan = 0.1
	maxLatSpan     = 180.0
	maxLonSpan     = 360.0
)

const (
	pinGlyph         = "●"
	selectedPinGlyph = "◆"
	centerGlyph      = "+"
	gridGlyph        = "·"
)

// projectPin maps g onto a width x height character grid covering view.
// ok is false when g lies outside the viewport.
func projectPin(view model.Region, g model.Geo, width, height int) (col, row int, ok bool) {
	if width <= 0 || height <= 0 || view.LatDelta <= 0 || view.LonDelta <= 0 {
		return 0, 0, false
	}
	if !view.Contains(g) {
		return 0, 0, false
	}

	x := (g.Lon - (view.Center.Lon - view.LonDelta/2)) / view.LonDelta
	y := ((view.Center.Lat + view.LatDelta/2) - g.Lat) / view.LatDelta

	col = min(int(x*float64(width)), width-1)
	row = min(int(y*float64(height)), height-1)
	return col, row, true
}

// zoomRegion scales the span of view by factor, keeping its center.
func zoomRegion(view model.Region, factor float64) model.Region {
	view.LatDelta = math.Min(maxLatSpan, math.Max(geo.MinSpanDegrees, view.LatDelta*factor))
	view.LonDelta = math.Min(maxLonSpan, math.Max(geo.MinSpanDegrees, view.LonDelta*factor))
	return view
}

// spanMeters is the east-west width of view measured along its center.
func spanMeters(view model.Region) float64 {
	west := model.Geo{Lat: view.Center.Lat, Lon: view.Center.Lon - view.LonDelta/2}
	east := model.Geo{Lat: view.Center.Lat, Lon: view.Center.Lon + view.LonDelta/2}
	return geo.DistanceMeters(west, east)
}

// radiusForView is the geosearch radius covering the visible map, capped at
// maxRadius.
func radiusForView(view model.Region, maxRadius int) int {
	north := model.Geo{Lat: view.Center.Lat + view.LatDelta/2, Lon: view.Center.Lon}
	half := math.Min(spanMeters(view), geo.DistanceMeters(view.Center, north)*2) / 2
	return max(10, min(maxRadius, int(half)))
}

// renderMap draws the viewport with article pins and a center crosshair.
func renderMap(view model.Region, pins []model.ArticleWithGeo, selectedID int64, width, height int) string {
	innerW, innerH := width-2, height-3
	if innerW <= 0 || innerH <= 0 {
		return ""
	}

	grid := make([][]string, innerH)
	for r := range grid {
		grid[r] = make([]string, innerW)
		for c := range grid[r] {
			if r%3 == 1 && c%6 == 2 {
				grid[r][c] = MutedStyle.Render(gridGlyph)
			} else {
				grid[r][c] = " "
			}
		}
	}

	if col, row, ok := projectPin(view, view.Center, innerW, innerH); ok {
		grid[row][col] = CenterMarkerStyle.Render(centerGlyph)
	}

	var selected *model.ArticleWithGeo
	for i := range pins {
		if pins[i].Article.ID == selectedID {
			selected = &pins[i]
			continue
		}
		if col, row, ok := projectPin(view, pins[i].Geo, innerW, innerH); ok {
			grid[row][col] = MarkerStyle.Render(pinGlyph)
		}
	}
	if selected != nil {
		if col, row, ok := projectPin(view, selected.Geo, innerW, innerH); ok {
			grid[row][col] = SelectedMarkerStyle.Render(selectedPinGlyph)
		}
	}

	lines := make([]string, innerH)
	for r := range grid {
		lines[r] = strings.Join(grid[r], "")
	}

	legend := MutedStyle.Render(util.TruncateString(
		util.FormatCoord(view.Center.Lat, view.Center.Lon)+"  ·  "+util.FormatDistance(spanMeters(view))+" across",
		innerW,
	))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		ActiveBorderStyle.Render(strings.Join(lines, "\n")),
		legend,
	)
}
