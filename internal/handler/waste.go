package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ovenline/production-api/internal/database"
	"github.com/ovenline/production-api/internal/service"
	"go.uber.org/zap"
)

// WasteServicer runs expiry alerts and pickup completion.
// Satisfied by *service.WasteService.
type WasteServicer interface {
	GenerateAlerts(ctx context.Context) (*service.AlertReport, error)
	CompleteCollection(ctx context.Context, collectionID uuid.UUID, req service.CompleteCollectionRequest) (database.WasteManagement, error)
}

type WasteHandler struct {
	svc WasteServicer
}

func NewWasteHandler(svc WasteServicer) *WasteHandler {
	return &WasteHandler{svc: svc}
}

// RegisterRoutes is mounted at /waste.
func (h *WasteHandler) RegisterRoutes(r chi.Router) {
	r.Post("/alerts", h.GenerateAlerts)
	r.Post("/collections/{id}/complete", h.CompleteCollection)
}

type completeCollectionRequest struct {
	Items       []service.WasteItem `json:"items"`
	DriverNotes string              `json:"driver_notes"`
}

type collectionResponse struct {
	ID                 uuid.UUID           `json:"id"`
	MerchantID         uuid.UUID           `json:"merchant_id"`
	ScheduledDate      *string             `json:"scheduled_collection_date"`
	Status             string              `json:"collection_status"`
	CollectedAt        *time.Time          `json:"actual_collection_date,omitempty"`
	AssignedDriverID   *uuid.UUID          `json:"assigned_driver_id,omitempty"`
	Items              []service.WasteItem `json:"waste_items_collected"`
	DriverNotes        string              `json:"driver_notes,omitempty"`
	TotalWasteValue    *string             `json:"total_waste_value,omitempty"`
	CreditedToMerchant bool                `json:"credited_to_merchant"`
}

func toCollectionResponse(c database.WasteManagement) collectionResponse {
	items, err := service.DecodeWasteItems(c.WasteItemsCollected)
	if err != nil {
		zap.L().Warn("undecodable waste items", zap.String("collection_id", c.ID.String()), zap.Error(err))
	}
	return collectionResponse{
		ID:                 c.ID,
		MerchantID:         c.MerchantID,
		ScheduledDate:      dateString(c.ScheduledCollectionDate),
		Status:             c.CollectionStatus,
		CollectedAt:        optTime(c.ActualCollectionDate),
		AssignedDriverID:   optUUID(c.AssignedDriverID),
		Items:              items,
		DriverNotes:        optText(c.DriverNotes),
		TotalWasteValue:    optNumeric(c.TotalWasteValue),
		CreditedToMerchant: c.CreditedToMerchant,
	}
}

// GenerateAlerts runs the daily expiry scan on demand.
func (h *WasteHandler) GenerateAlerts(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.GenerateAlerts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := struct {
		Alerts      []service.WasteAlert `json:"alerts"`
		Collections []collectionResponse `json:"collections_scheduled"`
	}{Alerts: report.Alerts, Collections: make([]collectionResponse, len(report.CollectionsScheduled))}
	if resp.Alerts == nil {
		resp.Alerts = []service.WasteAlert{}
	}
	for i, c := range report.CollectionsScheduled {
		resp.Collections[i] = toCollectionResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CompleteCollection records a driver's pickup. Omitted items keep the
// scheduled list.
func (h *WasteHandler) CompleteCollection(w http.ResponseWriter, r *http.Request) {
	collectionID, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	var req completeCollectionRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.svc.CompleteCollection(r.Context(), collectionID, service.CompleteCollectionRequest{
		Items:       req.Items,
		DriverNotes: req.DriverNotes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCollectionResponse(c))
}
