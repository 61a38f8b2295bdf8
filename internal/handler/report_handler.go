package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"salesintake/internal/csvexport"
	"salesintake/internal/listview"
	"salesintake/internal/port"
)

// numericParams are route parameters that must be plain unsigned integers
// before a request is relayed.
var numericParams = []string{"reportNumber", "rowID"}

// relayedHeaders are copied from backend responses onto proxied responses.
var relayedHeaders = []string{"Content-Type", "Content-Disposition", "Content-Length", "Cache-Control"}

// ReportHandler serves the administrative dashboards.
type ReportHandler struct {
	reports   port.ReportGateway
	apiPrefix string
}

// NewReportHandler creates a new ReportHandler. apiPrefix is stripped from
// portal paths to obtain the backend path of proxied calls.
func NewReportHandler(reports port.ReportGateway, apiPrefix string) *ReportHandler {
	return &ReportHandler{reports: reports, apiPrefix: apiPrefix}
}

// List handles GET /api/v1/reports?search=&sort=&order=&offset=&limit=
func (h *ReportHandler) List(c *gin.Context) {
	_, cred, ok := extractSession(c)
	if !ok {
		return
	}
	reports, err := h.reports.ListReports(c.Request.Context(), cred)
	if err != nil {
		HandleError(c, err)
		return
	}
	page := listview.Apply(reports, listview.ReportFields, parseListQuery(c))
	RespondPaginated(c, page.Items, PagMeta{Total: page.Total, Offset: page.Offset, Limit: page.Limit})
}

// Export handles GET /api/v1/reports/export. Search and sort apply; paging does not.
func (h *ReportHandler) Export(c *gin.Context) {
	_, cred, ok := extractSession(c)
	if !ok {
		return
	}
	reports, err := h.reports.ListReports(c.Request.Context(), cred)
	if err != nil {
		HandleError(c, err)
		return
	}
	rows := listview.Select(reports, listview.ReportFields, parseListQuery(c))

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", csvexport.BuildFilename("reports", time.Now())))
	c.Status(http.StatusOK)

	if _, err := c.Writer.Write(csvexport.BOM); err != nil {
		_ = c.Error(err)
		return
	}
	w := csvexport.NewWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		_ = c.Error(err)
		return
	}
	if err := w.WriteReports(rows); err != nil {
		_ = c.Error(err)
		return
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = c.Error(err)
	}
}

// Proxy relays the request to the same path on the backend and streams the
// response back untouched.
func (h *ReportHandler) Proxy(c *gin.Context) {
	_, cred, ok := extractSession(c)
	if !ok {
		return
	}
	for _, name := range numericParams {
		v, present := c.Params.Get(name)
		if !present {
			continue
		}
		if _, err := strconv.ParseUint(v, 10, 64); err != nil {
			RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("%s must be numeric", name))
			return
		}
	}
	var body io.Reader
	if c.Request.ContentLength != 0 && c.Request.Method != http.MethodGet {
		body = c.Request.Body
	}
	resp, err := h.reports.Forward(c.Request.Context(), cred, port.ForwardRequest{
		Method:   c.Request.Method,
		Path:     strings.TrimPrefix(c.Request.URL.Path, h.apiPrefix),
		RawQuery: c.Request.URL.RawQuery,
		Body:     body,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	defer resp.Body.Close()

	for _, name := range relayedHeaders {
		if v := resp.Header.Get(name); v != "" {
			c.Header(name, v)
		}
	}
	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		_ = c.Error(err)
	}
}
