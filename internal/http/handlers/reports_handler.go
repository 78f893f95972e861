package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"

	"fleetconsole/internal/api"

	"github.com/gin-gonic/gin"
)

// DownloadReport proxies a generated report to the browser as an attachment.
func (h *Console) DownloadReport(c *gin.Context) {
	format := api.ReportFormat(c.DefaultQuery("format", string(api.FormatPDF)))
	params := url.Values{}
	for k, vs := range c.Request.URL.Query() {
		if k != "format" {
			params[k] = vs
		}
	}

	var buf bytes.Buffer
	rep, err := h.API.DownloadReport(c.Request.Context(), c.Param("kind"), format, params, &buf)
	if err != nil {
		RespondDomainError(c, "reports", err)
		return
	}
	contentType := rep.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, rep.Filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
