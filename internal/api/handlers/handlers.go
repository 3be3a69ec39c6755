package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gurudharsan/weighease/internal/api/middleware"
	"github.com/gurudharsan/weighease/internal/billing"
	"github.com/gurudharsan/weighease/internal/projection"
	"github.com/gurudharsan/weighease/internal/store"
	"github.com/gurudharsan/weighease/internal/weighbridge"
)

// EntriesHandler handles weighbridge entry endpoints.
type EntriesHandler struct {
	store store.EntryStore
	log   zerolog.Logger
}

// NewEntriesHandler creates a new entries handler.
func NewEntriesHandler(st store.EntryStore, log zerolog.Logger) *EntriesHandler {
	return &EntriesHandler{store: st, log: log}
}

// ListEntries handles GET /api/entries
// Query parameters: from, to (YYYY-MM-DD) and party (substring).
// Malformed dates degrade to no date constraint, never to an error.
func (h *EntriesHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	f := store.BuildFilter(q.Get("from"), q.Get("to"), q.Get("party"))

	entries, err := h.store.Find(ctx, f)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list entries")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list entries")
		return
	}

	rows := projection.Project(entries)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"rows":  rows,
		"count": len(rows),
	})
}

// CreateEntry handles POST /api/entries
func (h *EntriesHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in weighbridge.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := weighbridge.NewEntry(in, time.Now)
	if err != nil {
		var verr *weighbridge.ValidationError
		if errors.As(err, &verr) {
			middleware.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":  "validation failed",
				"fields": verr.Fields,
			})
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Insert(ctx, entry); err != nil {
		h.log.Error().Err(err).Str("sno", entry.Serial).Msg("Failed to insert entry")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to insert entry")
		return
	}

	h.log.Info().Str("sno", entry.Serial).Str("party", entry.PartyName).Msg("Entry created")
	middleware.WriteJSON(w, http.StatusCreated, entry)
}

// UpdateEntry handles PUT /api/entries/{serial}
// The total is recomputed from the submitted rate and net weight; any
// total in the request body is ignored.
func (h *EntriesHandler) UpdateEntry(w http.ResponseWriter, r *http.Request, serial string) {
	ctx := r.Context()

	var req struct {
		PartyName string  `json:"party_name"`
		NetWeight float64 `json:"net_weight"`
		Rate      float64 `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PartyName == "" {
		middleware.WriteError(w, http.StatusBadRequest, "party_name is required")
		return
	}

	net := decimal.NewFromFloat(req.NetWeight)
	rate := decimal.NewFromFloat(req.Rate)
	total := net.Mul(rate).Round(2)

	res, err := h.store.Update(ctx, serial, store.EntryPatch{
		PartyName:   req.PartyName,
		NetWeight:   net.InexactFloat64(),
		Rate:        rate.InexactFloat64(),
		TotalAmount: total.InexactFloat64(),
	})
	if err != nil {
		h.log.Error().Err(err).Str("sno", serial).Msg("Failed to update entry")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update entry")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sno":      serial,
		"matched":  res.Matched,
		"modified": res.Modified,
		"total":    total.InexactFloat64(),
	})
}

// BillEntry handles POST /api/entries/{serial}/bill
// Calculates total = rate x net weight for the entry and, when persist
// is set, writes the rate and total back to the store.
func (h *EntriesHandler) BillEntry(w http.ResponseWriter, r *http.Request, serial string) {
	ctx := r.Context()

	var req struct {
		Rate    string `json:"rate"`
		Persist bool   `json:"persist"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.store.Get(ctx, serial)
	if err != nil {
		h.log.Error().Err(err).Str("sno", serial).Msg("Failed to fetch entry")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to fetch entry")
		return
	}
	if entry == nil {
		middleware.WriteError(w, http.StatusNotFound, "Entry not found")
		return
	}

	rate, total, err := billing.Calculate(req.Rate, projection.FormatWeight(entry.NetWeight))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	bill := billing.Bill{
		Serial:    entry.Serial,
		Date:      entry.Date,
		PartyName: entry.PartyName,
		NetWeight: decimal.NewFromFloat(entry.NetWeight),
		Rate:      rate,
		Total:     total,
	}

	outcome := "calculated"
	if req.Persist {
		o, err := billing.Persist(ctx, h.store, serial, rate, total)
		if err != nil {
			h.log.Error().Err(err).Str("sno", serial).Msg("Failed to persist bill")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to persist bill")
			return
		}
		outcome = o.String()
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"bill":    bill,
		"outcome": outcome,
	})
}

// DeleteEntry handles DELETE /api/entries/{serial}
// A missing serial is a benign no-op reported through the deleted
// count, not an error.
func (h *EntriesHandler) DeleteEntry(w http.ResponseWriter, r *http.Request, serial string) {
	ctx := r.Context()

	deleted, err := h.store.Delete(ctx, serial)
	if err != nil {
		h.log.Error().Err(err).Str("sno", serial).Msg("Failed to delete entry")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete entry")
		return
	}

	if deleted == 0 {
		h.log.Warn().Str("sno", serial).Msg("Delete targeted absent entry")
	} else {
		h.log.Info().Str("sno", serial).Msg("Entry deleted")
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sno":     serial,
		"deleted": deleted,
	})
}
