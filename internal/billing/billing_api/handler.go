package billing_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-billsplit/internal/billing"
	"ms-billsplit/internal/errs"
	"ms-billsplit/internal/logger"
	"ms-billsplit/internal/models"
	"ms-billsplit/internal/utils"
)

type Handler struct {
	BillService *billing.BillService
	Logger      *logger.Logger
}

func NewHandler(billService *billing.BillService) *Handler {
	return &Handler{
		BillService: billService,
		Logger:      logger.NewLogger(),
	}
}

func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var req models.BillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateBill: failed to decode request body: %v", err))
		utils.WriteError(w, "Invalid bill data", fmt.Errorf("%w: %v", errs.ErrValidation, err))
		return
	}

	bill, err := h.BillService.OpenBill(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateBill: %v", err))
		utils.WriteError(w, "Could not open bill", err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, bill)
}

func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	billID := chi.URLParam(r, "id")
	h.Logger.Info("API", fmt.Sprintf("GetBill: id=%s", billID))

	bill, err := h.BillService.GetBill(r.Context(), billID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBill: %v", err))
		utils.WriteError(w, "Bill not found", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, bill)
}

func (h *Handler) GetBillByTable(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "tableId")
	h.Logger.Info("API", fmt.Sprintf("GetBillByTable: tableId=%s", tableID))

	bill, err := h.BillService.GetActiveBillForTable(r.Context(), tableID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBillByTable: %v", err))
		utils.WriteError(w, "No active bill found for this table", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, bill)
}

func (h *Handler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	billID := chi.URLParam(r, "id")

	var patch models.BillPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateBill: failed to decode request body: %v", err))
		utils.WriteError(w, "Invalid bill data", fmt.Errorf("%w: %v", errs.ErrValidation, err))
		return
	}

	bill, err := h.BillService.UpdateBill(r.Context(), billID, patch)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateBill: %v", err))
		utils.WriteError(w, "Could not update bill", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, bill)
}

func (h *Handler) GetBillItems(w http.ResponseWriter, r *http.Request) {
	billID := chi.URLParam(r, "id")

	items, err := h.BillService.GetBillItems(r.Context(), billID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBillItems: %v", err))
		utils.WriteError(w, "Failed to fetch bill items", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) AddBillItem(w http.ResponseWriter, r *http.Request) {
	billID := chi.URLParam(r, "id")

	var req models.BillItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddBillItem: failed to decode request body: %v", err))
		utils.WriteError(w, "Invalid bill item data", fmt.Errorf("%w: %v", errs.ErrValidation, err))
		return
	}

	item, err := h.BillService.AddItem(r.Context(), billID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddBillItem: %v", err))
		utils.WriteError(w, "Could not add item", err)
		return
	}

	h.Logger.LogBill("ADD_ITEM", billID, fmt.Sprintf("item %s added via API", item.ID))
	utils.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdateBillItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	var patch models.BillItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateBillItem: failed to decode request body: %v", err))
		utils.WriteError(w, "Invalid bill item data", fmt.Errorf("%w: %v", errs.ErrValidation, err))
		return
	}

	item, err := h.BillService.UpdateItem(r.Context(), itemID, patch)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateBillItem: %v", err))
		utils.WriteError(w, "Could not update item", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, item)
}

// CreatePayment invokes the reconciler.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreatePayment: failed to decode request body: %v", err))
		utils.WriteError(w, "Invalid payment data", fmt.Errorf("%w: %v", errs.ErrValidation, err))
		return
	}

	h.Logger.LogPayment("REQUEST", req.BillID, fmt.Sprintf("amount=%s tip=%s items=%d", req.Amount, req.Tip, len(req.Items)))

	payment, err := h.BillService.RecordPayment(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreatePayment: %v", err))
		utils.WriteError(w, "Payment failed", err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, payment)
}

func (h *Handler) GetPaymentsByBill(w http.ResponseWriter, r *http.Request) {
	billID := chi.URLParam(r, "billId")

	payments, err := h.BillService.ListPayments(r.Context(), billID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetPaymentsByBill: %v", err))
		utils.WriteError(w, "Failed to fetch payments", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, payments)
}
