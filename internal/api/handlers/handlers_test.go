package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gurudharsan/weighease/internal/store/memstore"
	"github.com/gurudharsan/weighease/internal/weighbridge"
)

func newTestHandler() (*EntriesHandler, *memstore.Store) {
	st := memstore.New()
	return NewEntriesHandler(st, zerolog.New(io.Discard)), st
}

func seedEntry(t *testing.T, st *memstore.Store, serial, date, party string, net float64) {
	t.Helper()
	err := st.Insert(context.Background(), weighbridge.Entry{
		Serial:      serial,
		Date:        date,
		PartyName:   party,
		TruckNumber: "TN22AB1234",
		NumBags:     "40",
		GrossWeight: net + 200,
		EmptyWeight: 200,
		NetWeight:   net,
	})
	if err != nil {
		t.Fatalf("Insert(%q) error = %v", serial, err)
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response body: %v\n%s", err, rec.Body.String())
	}
	return body
}

func TestListEntries(t *testing.T) {
	h, st := newTestHandler()
	seedEntry(t, st, "1", "2024-03-01 09:00:00", "Acme Traders", 800)
	seedEntry(t, st, "2", "2024-03-05 09:00:00", "Globex", 600)
	seedEntry(t, st, "3", "2024-03-12 09:00:00", "Acme Traders", 700)

	tests := []struct {
		name        string
		query       string
		wantSerials []string
	}{
		{
			name:        "no filter returns all, newest serial first",
			wantSerials: []string{"3", "2", "1"},
		},
		{
			name:        "party substring case-insensitive",
			query:       "?party=acm",
			wantSerials: []string{"3", "1"},
		},
		{
			name:        "date range includes final day",
			query:       "?from=2024-03-01&to=2024-03-05",
			wantSerials: []string{"2", "1"},
		},
		{
			name:        "date and party compose",
			query:       "?from=2024-03-01&to=2024-03-05&party=acme",
			wantSerials: []string{"1"},
		},
		{
			name:        "malformed date drops the clause",
			query:       "?from=bad&to=2024-03-05",
			wantSerials: []string{"3", "2", "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/entries"+tt.query, nil)
			rec := httptest.NewRecorder()
			h.ListEntries(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			body := decodeBody(t, rec)
			if int(body["count"].(float64)) != len(tt.wantSerials) {
				t.Fatalf("count = %v, want %d", body["count"], len(tt.wantSerials))
			}
			rows := body["rows"].([]interface{})
			for i, want := range tt.wantSerials {
				row := rows[i].(map[string]interface{})
				if row["sno"] != want {
					t.Errorf("rows[%d].sno = %v, want %s", i, row["sno"], want)
				}
			}
		})
	}
}

func TestCreateEntry(t *testing.T) {
	h, st := newTestHandler()

	payload := `{
		"sno": "1",
		"party_name": "Acme Traders",
		"truck_number": "tn22ab1234",
		"num_of_bags": "40",
		"gross_weight": "1000",
		"truck_empty_weight": "200"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/entries", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	h.CreateEntry(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201\n%s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["sno"] != "1" {
		t.Errorf("sno = %v, want 1", body["sno"])
	}
	if body["truck_number"] != "TN22AB1234" {
		t.Errorf("truck_number = %v, want uppercased", body["truck_number"])
	}
	if body["net_weight"].(float64) != 800 {
		t.Errorf("net_weight = %v, want 800", body["net_weight"])
	}

	stored, _ := st.Get(context.Background(), "1")
	if stored == nil || stored.NetWeight != 800 {
		t.Errorf("stored entry = %+v, want net 800", stored)
	}
}

func TestCreateEntryValidation(t *testing.T) {
	h, _ := newTestHandler()

	payload := `{
		"sno": "",
		"party_name": "Acme",
		"truck_number": "BADPLATE",
		"num_of_bags": "40",
		"gross_weight": "1000",
		"truck_empty_weight": "abc"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/entries", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	h.CreateEntry(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["error"] != "validation failed" {
		t.Errorf("error = %v, want validation failed", body["error"])
	}

	fields := body["fields"].([]interface{})
	want := []string{"Serial Number", "Truck Number", "Truck Empty Weight"}
	if len(fields) != len(want) {
		t.Fatalf("fields = %v, want %v", fields, want)
	}
	for i, f := range want {
		if fields[i] != f {
			t.Errorf("fields[%d] = %v, want %s", i, fields[i], f)
		}
	}
}

func TestCreateEntryBadBody(t *testing.T) {
	h, _ := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/entries", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.CreateEntry(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateEntry(t *testing.T) {
	h, st := newTestHandler()
	seedEntry(t, st, "1", "2024-03-05 09:00:00", "Acme", 800)

	payload := `{"party_name": "Globex", "net_weight": 750, "rate": 4}`
	req := httptest.NewRequest(http.MethodPut, "/api/entries/1", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	h.UpdateEntry(rec, req, "1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["matched"].(float64) != 1 || body["modified"].(float64) != 1 {
		t.Errorf("matched/modified = %v/%v, want 1/1", body["matched"], body["modified"])
	}
	if body["total"].(float64) != 3000 {
		t.Errorf("total = %v, want 3000", body["total"])
	}

	stored, _ := st.Get(context.Background(), "1")
	if stored.PartyName != "Globex" || *stored.TotalAmount != 3000 {
		t.Errorf("stored entry = %+v", stored)
	}
}

func TestUpdateEntryAbsent(t *testing.T) {
	h, _ := newTestHandler()

	payload := `{"party_name": "Globex", "net_weight": 750, "rate": 4}`
	req := httptest.NewRequest(http.MethodPut, "/api/entries/99", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	h.UpdateEntry(rec, req, "99")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["matched"].(float64) != 0 {
		t.Errorf("matched = %v, want 0", body["matched"])
	}
}

func TestBillEntry(t *testing.T) {
	h, st := newTestHandler()
	seedEntry(t, st, "1", "2024-03-05 09:00:00", "Acme", 800)

	payload := `{"rate": "5", "persist": true}`
	req := httptest.NewRequest(http.MethodPost, "/api/entries/1/bill", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	h.BillEntry(rec, req, "1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["outcome"] != "updated" {
		t.Errorf("outcome = %v, want updated", body["outcome"])
	}
	bill := body["bill"].(map[string]interface{})
	if bill["sno"] != "1" || bill["party_name"] != "Acme" {
		t.Errorf("bill = %v", bill)
	}

	stored, _ := st.Get(context.Background(), "1")
	if stored.Rate == nil || *stored.Rate != 5 || *stored.TotalAmount != 4000 {
		t.Errorf("stored billing = %+v, want rate 5 total 4000", stored)
	}
}

func TestBillEntryCalculateOnly(t *testing.T) {
	h, st := newTestHandler()
	seedEntry(t, st, "1", "2024-03-05 09:00:00", "Acme", 800)

	payload := `{"rate": "5"}`
	req := httptest.NewRequest(http.MethodPost, "/api/entries/1/bill", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	h.BillEntry(rec, req, "1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["outcome"] != "calculated" {
		t.Errorf("outcome = %v, want calculated", body["outcome"])
	}

	stored, _ := st.Get(context.Background(), "1")
	if stored.Rate != nil {
		t.Errorf("store mutated without persist: %+v", stored)
	}
}

func TestBillEntryNotFound(t *testing.T) {
	h, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/entries/99/bill", bytes.NewBufferString(`{"rate": "5"}`))
	rec := httptest.NewRecorder()
	h.BillEntry(rec, req, "99")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestBillEntryMissingRate(t *testing.T) {
	h, st := newTestHandler()
	seedEntry(t, st, "1", "2024-03-05 09:00:00", "Acme", 800)

	req := httptest.NewRequest(http.MethodPost, "/api/entries/1/bill", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	h.BillEntry(rec, req, "1")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteEntry(t *testing.T) {
	h, st := newTestHandler()
	seedEntry(t, st, "1", "2024-03-05 09:00:00", "Acme", 800)

	req := httptest.NewRequest(http.MethodDelete, "/api/entries/1", nil)
	rec := httptest.NewRecorder()
	h.DeleteEntry(rec, req, "1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["deleted"].(float64) != 1 {
		t.Errorf("deleted = %v, want 1", body["deleted"])
	}

	if stored, _ := st.Get(context.Background(), "1"); stored != nil {
		t.Error("entry still present after delete")
	}
}

func TestDeleteEntryAbsent(t *testing.T) {
	h, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodDelete, "/api/entries/99", nil)
	rec := httptest.NewRecorder()
	h.DeleteEntry(rec, req, "99")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["deleted"].(float64) != 0 {
		t.Errorf("deleted = %v, want 0", body["deleted"])
	}
}
