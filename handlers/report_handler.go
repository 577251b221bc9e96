package handlers

import (
	"context"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"assetflow/reports"
	"assetflow/utils"
	"assetflow/validation"
)

const reportTimeout = 30 * time.Second

func (h *Handler) generateReport(w http.ResponseWriter, r *http.Request) (*reports.Report, bool) {
	q, err := validation.ValidateReportQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, err, "", "")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	rep, err := h.Reports.Generate(ctx, q)
	if err != nil {
		h.internalError(w, r, err)
		return nil, false
	}
	return rep, true
}

// GetReport returns the grouped subtotals as JSON.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.generateReport(w, r)
	if !ok {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, rep)
}

// ExportReport renders the report as a spreadsheet or Word document download.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	var render func(reports.Report, string) ([]byte, error)
	var contentType, filename string
	switch mux.Vars(r)["format"] {
	case "excel":
		render, contentType, filename = reports.RenderExcel, reports.ExcelContentType, reports.ExcelFilename
	case "word":
		render, contentType, filename = reports.RenderWord, reports.WordContentType, reports.WordFilename
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid format")
		return
	}

	rep, ok := h.generateReport(w, r)
	if !ok {
		return
	}
	data, err := render(*rep, rep.Title())
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
