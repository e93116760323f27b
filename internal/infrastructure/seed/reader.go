// Package seed carga el catálogo inicial (ubicaciones, artículos y saldos de apertura)
// desde una planilla .xlsx o un .csv exportado de la planilla de inventario físico.
package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Tipos de fila.
const (
	KindLocation = "location"
	KindItem     = "item"
	KindStock    = "stock"
)

// Row fila del archivo: tipo, nombre, grupo, valor.
//
//	location, <nombre>, <departamento>, -
//	item,     <nombre>, <categoría>,    <precio unitario>
//	stock,    <artículo>, <ubicación>,  <cantidad>
type Row struct {
	Line  int
	Kind  string
	Name  string
	Group string
	Value string
}

// ReadFile detecta el formato por extensión. latin1 solo aplica a .csv (exportaciones de Excel en Windows).
func ReadFile(path string, latin1 bool) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(f)
	case ".csv":
		var r io.Reader = f
		if latin1 {
			r = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
		}
		return ReadCSV(r)
	}
	return nil, fmt.Errorf("formato no soportado: %s (.xlsx | .csv)", filepath.Ext(path))
}

// ReadXLSX lee la hoja activa.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("abrir xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("leer hoja %q: %w", sheet, err)
	}
	lines := make([]int, len(records))
	for i := range records {
		lines[i] = i + 1
	}
	return parseRecords(records, lines)
}

// ReadCSV lee registros separados por coma; acepta filas de largo variable.
// encoding/csv salta las líneas vacías, por eso el número de línea sale de FieldPos.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	var (
		records [][]string
		lines   []int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("leer csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
	return parseRecords(records, lines)
}

func parseRecords(records [][]string, lines []int) ([]Row, error) {
	var rows []Row
	header := true
	for i, rec := range records {
		line := lines[i]
		if len(rec) == 0 || strings.TrimSpace(strings.Join(rec, "")) == "" {
			continue
		}
		kind := strings.ToLower(strings.TrimSpace(rec[0]))
		if header {
			header = false
			if kind == "kind" || kind == "tipo" {
				continue
			}
		}
		switch kind {
		case KindLocation, KindItem, KindStock:
		default:
			return nil, fmt.Errorf("línea %d: tipo desconocido %q", line, rec[0])
		}
		if len(rec) < 2 || strings.TrimSpace(rec[1]) == "" {
			return nil, fmt.Errorf("línea %d: nombre requerido", line)
		}
		rows = append(rows, Row{
			Line:  line,
			Kind:  kind,
			Name:  strings.TrimSpace(rec[1]),
			Group: column(rec, 2),
			Value: column(rec, 3),
		})
	}
	return rows, nil
}

func column(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}
