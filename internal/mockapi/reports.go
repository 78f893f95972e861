package mockapi

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"time"

	"fleetconsole/internal/domain/models"
	"fleetconsole/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/phpdave11/gofpdf"
)

type reportTable struct {
	Title   string
	Headers []string
	Rows    [][]string
}

var reportTemplate = template.Must(template.New("report").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<table border="1" cellpadding="4">
<tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
</body></html>
`))

// GET /api/reports/:kind?format=excel|html|pdf
func (s *Server) report(c *gin.Context) {
	span, err := utils.ParseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		field := "from"
		var rerr utils.DateRangeError
		if errors.As(err, &rerr) {
			field = rerr.Field
		}
		c.JSON(http.StatusBadRequest, gin.H{"field": field, "error": "dates must be YYYY-MM-DD with from before to"})
		return
	}

	table, ok := s.reportTable(c.Param("kind"), span)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown report"})
		return
	}

	stamp := utils.FileStamp(time.Now())
	var (
		body        []byte
		contentType string
		ext         string
	)
	switch c.DefaultQuery("format", "pdf") {
	case "excel":
		body, err = renderCSV(table)
		contentType, ext = "text/csv; charset=utf-8", "csv"
	case "html":
		body, err = renderHTML(table)
		contentType, ext = "text/html; charset=utf-8", "html"
	case "pdf":
		body, err = renderPDF(table)
		contentType, ext = "application/pdf", "pdf"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"field": "format", "error": "format must be excel, html or pdf"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render report"})
		return
	}

	filename := fmt.Sprintf("%s_%s.%s", c.Param("kind"), stamp, ext)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, body)
}

func (s *Server) reportTable(kind string, span utils.DateRange) (reportTable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch kind {
	case "requests":
		t := reportTable{Title: "Transport requests", Headers: []string{"ID", "Date", "Requester", "Status", "Routes", "Comments"}}
		ids := make([]int64, 0, len(s.requests))
		for id := range s.requests {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			r := s.requests[id]
			if !span.Contains(r.Date) {
				continue
			}
			t.Rows = append(t.Rows, []string{
				strconv.FormatInt(r.ID, 10), r.Date, r.RequesterName, r.Status.String(),
				strconv.Itoa(len(r.Routes)), r.Comments,
			})
		}
		return t, true
	case "trips":
		t := reportTable{Title: "Trips", Headers: []string{"ID", "Request", "Driver", "Date", "From", "To", "Km"}}
		for _, tr := range s.trips {
			if !span.Contains(tr.Date) {
				continue
			}
			t.Rows = append(t.Rows, []string{
				strconv.FormatInt(tr.ID, 10), strconv.FormatInt(tr.RequestID, 10), s.driverName(tr.DriverID),
				tr.Date, tr.Departure, tr.Destination, strconv.FormatFloat(tr.DistanceKm, 'f', 1, 64),
			})
		}
		return t, true
	case "drivers":
		t := reportTable{Title: "Drivers", Headers: []string{"ID", "Name", "Phone", "Car"}}
		drivers := make([]models.Driver, 0, len(s.drivers))
		for _, d := range s.drivers {
			drivers = append(drivers, d)
		}
		sort.Slice(drivers, func(i, j int) bool { return drivers[i].ID < drivers[j].ID })
		for _, d := range drivers {
			car := "-"
			if cr, ok := s.cars[d.CarID]; ok {
				car = cr.Plate
			}
			t.Rows = append(t.Rows, []string{strconv.FormatInt(d.ID, 10), d.Name, d.Phone, car})
		}
		return t, true
	}
	return reportTable{}, false
}

func (s *Server) driverName(id int64) string {
	if d, ok := s.drivers[id]; ok {
		return d.Name
	}
	return "-"
}

func renderCSV(t reportTable) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Headers); err != nil {
		return nil, err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderHTML(t reportTable) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderPDF(t reportTable) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(t.Title, false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, t.Title)
	pdf.Ln(12)

	width := 270.0 / float64(len(t.Headers))
	pdf.SetFont("Helvetica", "B", 10)
	for _, h := range t.Headers {
		pdf.CellFormat(width, 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range t.Rows {
		for _, cell := range row {
			pdf.CellFormat(width, 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, "Generated "+utils.Timestamp(time.Now()))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
