package table_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-billsplit/internal/billing"
	"ms-billsplit/internal/errs"
	"ms-billsplit/internal/logger"
	"ms-billsplit/internal/models"
	"ms-billsplit/internal/tables"
	"ms-billsplit/internal/utils"
)

// Handler serves the registry endpoints and the QR entry point, which
// crosses into billing to hand the patron their active bill.
type Handler struct {
	TableService *tables.TableService
	BillService  *billing.BillService
	Logger       *logger.Logger
}

func NewHandler(tableService *tables.TableService, billService *billing.BillService) *Handler {
	return &Handler{
		TableService: tableService,
		BillService:  billService,
		Logger:       logger.NewLogger(),
	}
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	result, err := h.TableService.List(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListTables: %v", err))
		utils.WriteError(w, "Failed to fetch tables", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	var req models.TableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateTable: failed to decode request body: %v", err))
		utils.WriteError(w, "Invalid table data", fmt.Errorf("%w: %v", errs.ErrValidation, err))
		return
	}

	table, err := h.TableService.Register(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateTable: %v", err))
		utils.WriteError(w, "Could not register table", err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, table)
}

func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "id")

	table, err := h.TableService.Get(r.Context(), tableID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetTable: %v", err))
		utils.WriteError(w, "Table not found", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, table)
}

// GetTableQR serves the printable QR code PNG for a table.
func (h *Handler) GetTableQR(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "id")

	png, err := h.TableService.QRImage(r.Context(), tableID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetTableQR: %v", err))
		utils.WriteError(w, "Could not generate QR code", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// ResolveQREntry is the patron landing endpoint: table number and
// restaurant slug from the scanned URL resolve to the active bill with
// its items.
func (h *Handler) ResolveQREntry(w http.ResponseWriter, r *http.Request) {
	restaurant := chi.URLParam(r, "restaurant")
	number, err := strconv.Atoi(chi.URLParam(r, "tableNumber"))
	if err != nil {
		utils.WriteError(w, "Invalid table number", fmt.Errorf("%w: table number must be an integer", errs.ErrValidation))
		return
	}

	h.Logger.Info("API", fmt.Sprintf("ResolveQREntry: table=%d restaurant=%s", number, restaurant))

	table, err := h.TableService.Resolve(r.Context(), number, restaurant)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ResolveQREntry: %v", err))
		utils.WriteError(w, "Table not found", err)
		return
	}

	bill, err := h.BillService.GetActiveBillForTable(r.Context(), table.ID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ResolveQREntry: %v", err))
		utils.WriteError(w, "No active bill for this table", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, bill)
}
