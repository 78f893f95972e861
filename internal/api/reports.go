package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"fleetconsole/internal/domain"
	"fleetconsole/internal/gateway"
)

type ReportFormat string

const (
	FormatExcel ReportFormat = "excel"
	FormatHTML  ReportFormat = "html"
	FormatPDF   ReportFormat = "pdf"
)

var reportKinds = map[string]bool{"requests": true, "trips": true, "drivers": true}

// Report is a downloaded report payload.
type Report struct {
	Filename    string
	ContentType string
	Size        int64
}

// DownloadReport fetches a generated report and copies it to w.
func (c *Client) DownloadReport(ctx context.Context, kind string, format ReportFormat, params url.Values, w io.Writer) (Report, error) {
	if !reportKinds[kind] {
		return Report{}, domain.ValidationError{Field: "kind", Msg: "unknown report " + kind}
	}
	switch format {
	case FormatExcel, FormatHTML, FormatPDF:
	default:
		return Report{}, domain.ValidationError{Field: "format", Msg: "format must be excel, html or pdf"}
	}

	q := url.Values{}
	for k, vs := range params {
		q[k] = append([]string(nil), vs...)
	}
	q.Set("format", string(format))

	resp, err := c.GW.Execute(ctx, gateway.Request{Method: http.MethodGet, Path: "/reports/" + kind, Query: q})
	if err != nil {
		return Report{}, err
	}

	out := Report{
		Filename:    fmt.Sprintf("%s.%s", kind, extension(format)),
		ContentType: resp.Header.Get("Content-Type"),
	}
	if _, p, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && p["filename"] != "" {
		out.Filename = p["filename"]
	}
	n, err := w.Write(resp.Body)
	if err != nil {
		return Report{}, domain.InternalError{Msg: "cannot write report", Err: err}
	}
	out.Size = int64(n)
	return out, nil
}

func extension(f ReportFormat) string {
	switch f {
	case FormatExcel:
		return "csv"
	case FormatHTML:
		return "html"
	default:
		return "pdf"
	}
}
