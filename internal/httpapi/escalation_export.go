package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/service"
)

// escalationExportHeader is the column order of the case export sheet.
var escalationExportHeader = []string{
	"Case ID",
	"Mother",
	"CHW",
	"Nurse",
	"Issue Type",
	"Priority",
	"Status",
	"Description",
	"Notes",
	"Created",
	"Resolved",
}

// ExportHandler serves GET /sync/api/v1/escalations/export: the nurse's case
// list as an Excel workbook for offline reporting.
type ExportHandler struct {
	escalations *service.EscalationService
	logger      *zap.Logger
}

func NewExportHandler(escalations *service.EscalationService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{escalations: escalations, logger: logger}
}

func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	if actor.Role != domain.RoleNurse {
		writeError(w, domain.ErrForbidden)
		return
	}

	items, err := h.escalations.ListEscalations(r.Context(), actor, service.ListEscalationsRequest{
		Status:   r.URL.Query().Get("status"),
		Priority: r.URL.Query().Get("priority"),
		Limit:    parseInt(r.URL.Query().Get("limit"), 1000),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := generateEscalationExport(items)
	if err != nil {
		h.logger.Error("escalation export failed", zap.Error(err))
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("escalations-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(data)
}

func generateEscalationExport(items []*domain.Escalation) ([]byte, error) {
	f := excelize.NewFile()

	sheetName := "Escalations"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range escalationExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for rowIdx, e := range items {
		row := rowIdx + 2
		values := []any{
			e.ID,
			e.MotherName,
			e.CHWName,
			strptr(e.NurseName),
			strptr(e.IssueType),
			string(e.Priority),
			string(e.Status),
			e.CaseDescription,
			strptr(e.Notes),
			e.CreatedAt.Format(time.RFC3339),
			timeptr(e.ResolvedAt),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func strptr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeptr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
