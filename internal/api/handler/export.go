package handler

import (
	"bytes"
	"net/http"

	"github.com/cyclecraft/bikeshare/internal/export"
	"github.com/cyclecraft/bikeshare/pkg/httpx"
)

const workbookName = "bikeshare.xlsx"

// Export downloads every published table as one workbook
// @Summary Export workbook
// @Description Excel workbook with one sheet per result table plus small_data
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 404 {object} httpx.ErrorResponse "Nothing published yet"
// @Failure 500 {object} httpx.ErrorResponse
// @Router /export.xlsx [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.Write(r.Context(), h.rel, &buf); err != nil {
		httpx.RespondError(w, statusFor(err), err)
		return
	}

	w.Header().Set("Content-Type", h.files.GetFileType(workbookName))
	w.Header().Set("Content-Disposition", `attachment; filename="`+workbookName+`"`)
	w.Write(buf.Bytes())
}
