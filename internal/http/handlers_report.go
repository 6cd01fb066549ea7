package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"cashflow/internal/export"
	"cashflow/internal/importer"
	"cashflow/internal/log"
	"cashflow/internal/report"
	"cashflow/internal/services"
)

type reportQuery struct {
	filter report.Filter
	sort   report.Sort
	raw    services.ExportSelection
}

func parseReportQuery(r *http.Request) (reportQuery, error) {
	q := r.URL.Query()
	sel := services.ExportSelection{
		BookIDs: queryList(r, "books"),
		Start:   q.Get("start"),
		End:     q.Get("end"),
		Type:    q.Get("type"),
	}
	f, err := report.ParseFilter(sel.BookIDs, sel.Start, sel.End, sel.Type)
	if err != nil {
		return reportQuery{}, err
	}
	sort, err := report.ParseSort(q.Get("sort"), q.Get("dir"))
	if err != nil {
		return reportQuery{}, badRequest("%v", err)
	}
	return reportQuery{filter: f, sort: sort, raw: sel}, nil
}

// reportKey identifies a report of one ledger version; any change to the
// ledger bumps the version and so misses the cache.
func reportKey(version uint64, businessID string, f report.Filter, s report.Sort) string {
	return strings.Join([]string{
		strconv.FormatUint(version, 10),
		businessID,
		strings.Join(f.BookIDs, ","),
		f.Start.String(),
		f.End.String(),
		string(f.Type),
		string(s.Key),
		string(s.Direction),
	}, "|")
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) error {
	version := s.svc.Version()
	b, err := s.business(r)
	if err != nil {
		return err
	}
	q, err := parseReportQuery(r)
	if err != nil {
		return err
	}
	f := q.filter.OrAllBooks(b)

	key := reportKey(version, b.ID, f, q.sort)
	rep, _ := s.reports.GetOrCompute(key, func() (report.Report, error) {
		return report.Build(b, f, q.sort), nil
	})
	writeJSON(w, http.StatusOK, rep)
	return nil
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) error {
	b, err := s.business(r)
	if err != nil {
		return err
	}
	q, err := parseReportQuery(r)
	if err != nil {
		return err
	}
	return s.writePDF(w, r, report.ReportStatement(b, q.filter.OrAllBooks(b)))
}

func (s *Server) handleBookPDF(w http.ResponseWriter, r *http.Request) error {
	b, err := s.business(r)
	if err != nil {
		return err
	}
	st, err := report.BookStatement(b, r.PathValue("bookID"))
	if err != nil {
		return err
	}
	return s.writePDF(w, r, st)
}

// writePDF renders into memory first so a failed render still gets a JSON error.
func (s *Server) writePDF(w http.ResponseWriter, r *http.Request, st report.Statement) error {
	now := s.now()
	var buf bytes.Buffer
	if err := export.RenderStatement(&buf, st, export.Options{Currency: s.svc.Snapshot().Currency, Now: now}); err != nil {
		return err
	}
	name := export.FileName(st.Title, now)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.WarnContext(r.Context(), "PDF download interrupted", log.FieldFileName, name, log.FieldError, err)
	}
	return nil
}

func (s *Server) handleRequestExport(w http.ResponseWriter, r *http.Request) error {
	var sel services.ExportSelection
	if r.ContentLength != 0 {
		var req struct {
			Books []string `json:"books"`
			Start string   `json:"start"`
			End   string   `json:"end"`
			Type  string   `json:"type"`
		}
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		sel = services.ExportSelection{BookIDs: req.Books, Start: req.Start, End: req.End, Type: req.Type}
	}
	id, err := s.svc.RequestExport(r.Context(), r.PathValue("id"), sel)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
	return nil
}

func (s *Server) handleImportTemplate(w http.ResponseWriter, r *http.Request) error {
	var buf bytes.Buffer
	if err := importer.WriteTemplate(&buf); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", importer.TemplateFileName))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
	return nil
}
