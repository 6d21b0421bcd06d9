package dataset

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/xuri/excelize/v2"
)

// cellKind is the storage type of a cell, from its t attribute.
type cellKind uint8

const (
	kindNumber cellKind = iota // t absent or "n"
	kindString                 // "s", "str", "inlineStr" and "e"
	kindBool                   // "b"
	kindDate                   // "d", an ISO 8601 timestamp
)

// cellMeta is the storage type and style index of one stored cell.
type cellMeta struct {
	style int32
	kind  cellKind
}

// sheetMeta holds the cellMeta of every stored cell, indexed by
// [row-1][col-1]. Cells that are not stored read as a General number.
type sheetMeta [][]cellMeta

func (m sheetMeta) at(row, col int) cellMeta {
	if row < 1 || row > len(m) || col < 1 || col > len(m[row-1]) {
		return cellMeta{}
	}
	return m[row-1][col-1]
}

func (m sheetMeta) set(row, col int, cm cellMeta) sheetMeta {
	for len(m) < row {
		m = append(m, nil)
	}
	cells := m[row-1]
	for len(cells) < col {
		cells = append(cells, cellMeta{})
	}
	cells[col-1] = cm
	m[row-1] = cells
	return m
}

func parseKind(t string) cellKind {
	switch t {
	case "", "n":
		return kindNumber
	case "b":
		return kindBool
	case "d":
		return kindDate
	default:
		return kindString
	}
}

// =============================================================================
// PACKAGE PARTS
// =============================================================================

const (
	rootRelsPart        = "_rels/.rels"
	defaultWorkbookPart = "xl/workbook.xml"
	officeDocumentRel   = "/officeDocument"
)

type xmlRelationships struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type xmlWorkbookSheets struct {
	Sheets []struct {
		Name  string     `xml:"name,attr"`
		Attrs []xml.Attr `xml:",any,attr"`
	} `xml:"sheets>sheet"`
}

// readSheetMeta reads the storage type and style of every cell of the named
// sheet from the workbook package at filename. Cell values are not decoded.
func readSheetMeta(filename, sheet string) (sheetMeta, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	parts := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		parts[strings.TrimPrefix(f.Name, "/")] = f
	}

	workbook := defaultWorkbookPart
	var rels xmlRelationships
	if err := decodePart(parts, rootRelsPart, &rels); err == nil {
		for _, rel := range rels.Relationships {
			if strings.HasSuffix(rel.Type, officeDocumentRel) {
				workbook = resolveTarget(".", rel.Target)
				break
			}
		}
	}

	var wb xmlWorkbookSheets
	if err := decodePart(parts, workbook, &wb); err != nil {
		return nil, err
	}
	var relID string
	for _, s := range wb.Sheets {
		if s.Name != sheet {
			continue
		}
		for _, a := range s.Attrs {
			if a.Name.Local == "id" {
				relID = a.Value
			}
		}
	}
	if relID == "" {
		return nil, fmt.Errorf("sheet %q not found in %s", sheet, workbook)
	}

	rels = xmlRelationships{}
	if err := decodePart(parts, relsPartFor(workbook), &rels); err != nil {
		return nil, err
	}
	var sheetPart string
	for _, rel := range rels.Relationships {
		if rel.ID == relID {
			sheetPart = resolveTarget(path.Dir(workbook), rel.Target)
		}
	}

	f, ok := parts[sheetPart]
	if !ok {
		return nil, fmt.Errorf("worksheet part for sheet %q is missing", sheet)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return scanSheetMeta(rc)
}

// scanSheetMeta walks the sheetData element of a worksheet part. Row and
// cell positions follow the r attributes, or count up when they are absent.
func scanSheetMeta(r io.Reader) (sheetMeta, error) {
	dec := xml.NewDecoder(r)

	var (
		meta     sheetMeta
		row, col int
		inData   bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return meta, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan worksheet: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case el.Name.Local == "sheetData":
				inData = true
			case !inData:
			case el.Name.Local == "row":
				row, col = row+1, 0
				if v := attrValue(el, "r"); v != "" {
					if row, err = strconv.Atoi(v); err != nil {
						return nil, fmt.Errorf("invalid row number %q: %w", v, err)
					}
				}
			case el.Name.Local == "c":
				col++
				var cm cellMeta
				for _, a := range el.Attr {
					switch a.Name.Local {
					case "r":
						if col, _, err = excelize.CellNameToCoordinates(a.Value); err != nil {
							return nil, err
						}
					case "t":
						cm.kind = parseKind(a.Value)
					case "s":
						s, _ := strconv.ParseInt(a.Value, 10, 32)
						cm.style = int32(s)
					}
				}
				if row > 0 {
					meta = meta.set(row, col, cm)
				}
			}
		case xml.EndElement:
			if el.Name.Local == "sheetData" {
				return meta, nil
			}
		}
	}
}

func decodePart(parts map[string]*zip.File, name string, v interface{}) error {
	f, ok := parts[name]
	if !ok {
		return fmt.Errorf("part %s is missing", name)
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

// relsPartFor returns the relationships part of a package part.
func relsPartFor(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

// resolveTarget resolves a relationship target against the directory of
// its source part.
func resolveTarget(dir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(dir, target)
}

func attrValue(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
