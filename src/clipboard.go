package ags

import (
	"encoding/xml"
	"fmt"
	"strconv"
)

// automationDoc is the XML shape of an automation clipboard fragment (spec
// §6): an <automation> root carrying program/type/version/format and the
// selection's metadata, one <timestamp/> child, and one <acceleration/>
// child per point. The x/y attributes stay strings through unmarshaling so
// a malformed point skips only its own node instead of failing the whole
// fragment.
type automationDoc struct {
	XMLName     xml.Name        `xml:"automation"`
	Program     string          `xml:"program,attr"`
	Type        string          `xml:"type,attr"`
	Version     string          `xml:"version,attr"`
	Format      string          `xml:"format,attr"`
	ControlName string          `xml:"control-name,attr"`
	Line        string          `xml:"line,attr"`
	XBoundary   string          `xml:"x-boundary,attr"`
	YBoundary   string          `xml:"y-boundary,attr"`
	Timestamp   timestampNode   `xml:"timestamp"`
	Points      []accelNode     `xml:"acceleration"`
}

type timestampNode struct {
	Offset uint64 `xml:"offset,attr"`
}

type accelNode struct {
	X string `xml:"x,attr"`
	Y string `xml:"y,attr"`
}

// CopySelection serializes the current selection into the clipboard XML
// fragment of spec §6: x printed via %u, y via %f, x-boundary the smallest
// selected x, y-boundary the smallest selected y. An empty selection still
// yields a well-formed fragment with boundaries (0, 0.0).
func (a *Automation) CopySelection() ([]byte, error) {
	a.mu.Lock()
	selection := make([]*AccelerationPoint, len(a.selection))
	copy(selection, a.selection)
	line, controlName, ts := a.Line, a.ControlName, a.Timestamp
	a.mu.Unlock()

	doc := automationDoc{
		Program:     ClipboardProgram,
		Type:        ClipboardType,
		Version:     ClipboardVersionCurrent,
		Format:      ClipboardFormat,
		ControlName: controlName,
		Line:        strconv.Itoa(line),
		Timestamp:   timestampNode{Offset: ts.Value},
	}

	xBoundary := uint(0)
	yBoundary := 0.0
	if len(selection) > 0 {
		// The selection list is sorted by (x, then y); its head carries the
		// smallest x.
		xBoundary = selection[0].X
		yBoundary = selection[0].Y
		for _, p := range selection {
			if p.Y < yBoundary {
				yBoundary = p.Y
			}
		}
	}
	doc.XBoundary = strconv.FormatUint(uint64(xBoundary), 10)
	doc.YBoundary = fmt.Sprintf("%f", yBoundary)

	for _, p := range selection {
		doc.Points = append(doc.Points, accelNode{
			X: strconv.FormatUint(uint64(p.X), 10),
			Y: fmt.Sprintf("%f", p.Y),
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &SoundcardError{Kind: ParseError, Msg: "marshaling clipboard selection", Err: err}
	}
	return out, nil
}

// CutSelection copies the selection, then removes every selected point
// from the main list and clears the selection (spec §4.6 cut_selection).
func (a *Automation) CutSelection() ([]byte, error) {
	data, err := a.CopySelection()
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	toRemove := make([]*AccelerationPoint, len(a.selection))
	copy(toRemove, a.selection)
	a.mu.Unlock()

	for _, p := range toRemove {
		a.RemovePoint(p, false)
	}
	a.FreeSelection()

	return data, nil
}

// InsertFromClipboard parses a clipboard XML fragment and merges its points
// into a, shifting to the (xOffset, yOffset) anchors when resetX/resetY are
// set (spec §4.6 insert_from_clipboard).
func (a *Automation) InsertFromClipboard(data []byte, resetX bool, xOffset uint, resetY bool, yOffset float64) error {
	return a.InsertFromClipboardExtended(data, resetX, xOffset, resetY, yOffset, false, false)
}

// InsertFromClipboardExtended additionally supports matching by line and
// duplicate elimination (spec §4.6 insert_from_clipboard_extended). Version
// dispatch recognizes "1.3.0" and the legacy "0.4.3"; the legacy format
// never checks line even when matchLine is requested, since a 0.4.3
// fragment carries no line attribute to compare against. When the
// receiver's timestamp is in offset mode, points outside
// [ts, ts+DefaultOffset) are skipped.
func (a *Automation) InsertFromClipboardExtended(data []byte, resetX bool, xOffset uint, resetY bool, yOffset float64, matchLine bool, noDuplicates bool) error {
	var doc automationDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return &SoundcardError{Kind: ParseError, Msg: "parsing clipboard fragment", Err: err}
	}

	if doc.Program != ClipboardProgram || doc.Type != ClipboardType || doc.Format != ClipboardFormat {
		return &SoundcardError{Kind: ParseError, Msg: fmt.Sprintf("clipboard fragment has wrong program/type/format (got %q/%q/%q)", doc.Program, doc.Type, doc.Format)}
	}

	switch doc.Version {
	case ClipboardVersionCurrent:
		if matchLine {
			line, err := strconv.Atoi(doc.Line)
			if err != nil || line != a.Line {
				return nil
			}
		}
	case ClipboardVersionLegacy:
		// No line attribute to compare in the legacy fragment; matchLine
		// is a no-op here regardless of its value.
	default:
		return &SoundcardError{Kind: ParseError, Msg: fmt.Sprintf("unsupported clipboard version %q", doc.Version)}
	}

	// Boundary differences for resetting: unsigned magnitude plus a
	// direction, per the clipboard's %u-printed boundaries.
	var xDiff uint
	subtractX := false
	if resetX {
		boundary, err := strconv.ParseUint(doc.XBoundary, 10, 64)
		if err != nil {
			resetX = false
		} else if uint(boundary) < xOffset {
			xDiff = xOffset - uint(boundary)
		} else {
			xDiff = uint(boundary) - xOffset
			subtractX = true
		}
	}

	var yDiff float64
	subtractY := false
	if resetY {
		boundary, err := strconv.ParseFloat(doc.YBoundary, 64)
		if err != nil {
			resetY = false
		} else if boundary < yOffset {
			yDiff = yOffset - boundary
		} else {
			yDiff = boundary - yOffset
			subtractY = true
		}
	}

	a.mu.Lock()
	tsMode, tsOffset := a.Timestamp.Mode, a.Timestamp.Value
	a.mu.Unlock()
	matchTimestamp := tsMode == TimestampOffset

	for _, node := range doc.Points {
		x64, err := strconv.ParseUint(node.X, 10, 64)
		if err != nil {
			continue
		}
		x := uint(x64)

		y, err := strconv.ParseFloat(node.Y, 64)
		if err != nil {
			continue
		}

		if resetX {
			if subtractX {
				if x < xDiff {
					continue
				}
				x -= xDiff
			} else {
				x += xDiff
			}
		}

		if resetY {
			if subtractY {
				y -= yDiff
			} else {
				y += yDiff
			}
		}

		if noDuplicates {
			if _, ok := a.FindPoint(x, y, false); ok {
				continue
			}
		}

		if matchTimestamp && (uint64(x) < tsOffset || uint64(x) >= tsOffset+DefaultOffset) {
			continue
		}

		a.AddPoint(&AccelerationPoint{X: x, Y: y}, false)
	}

	return nil
}
