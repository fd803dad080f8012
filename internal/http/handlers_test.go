package http

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"spendlite/internal/core"
	"spendlite/internal/log"
	"spendlite/internal/storage"
	"spendlite/internal/store"
)

func seedRecords() []core.Transaction {
	return []core.Transaction{
		{ID: "t1", Kind: core.Income, Category: "Salary", Amount: core.Money{Cents: 350000}, Date: "2024-01-01", Note: "Monthly"},
		{ID: "t2", Kind: core.Expense, Category: "Rent", Amount: core.Money{Cents: 120000}, Date: "2024-01-02"},
		{ID: "t3", Kind: core.Expense, Category: "Groceries", Amount: core.Money{Cents: 18045}, Date: "2024-02-05", Note: "Weekly shop"},
	}
}

func newTestServer(t *testing.T, records []core.Transaction) (*Server, *store.Store) {
	t.Helper()
	st := store.New(storage.NewMemory())
	if len(records) > 0 {
		st.MergeImport(context.Background(), records)
	}
	srv := NewServer("127.0.0.1:0", st, log.New(log.DefaultConfig()))
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv, st
}

func doJSON(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []core.Transaction {
	t.Helper()
	var got []core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding list response: %v\nbody: %s", err, rec.Body.String())
	}
	return got
}

func TestListSortedByDateDescending(t *testing.T) {
	srv, _ := newTestServer(t, seedRecords())

	rec := doJSON(t, srv, http.MethodGet, "/api/transactions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	got := decodeList(t, rec)
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	want := []string{"t3", "t2", "t1"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: id = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestListHonorsFilterParams(t *testing.T) {
	srv, _ := newTestServer(t, seedRecords())

	tests := []struct {
		query string
		want  []string
	}{
		{"kind=expense", []string{"t3", "t2"}},
		{"kind=all", []string{"t3", "t2", "t1"}},
		{"category=groceries", []string{"t3"}},
		{"from=2024-01-02&to=2024-01-31", []string{"t2"}},
		{"q=weekly", []string{"t3"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodGet, "/api/transactions?"+tt.query, "")
			got := decodeList(t, rec)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d records, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("position %d: id = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestAddTransaction(t *testing.T) {
	srv, st := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"type":"income","category":" Salary ","amount":"1800.455","date":"2024-03-01","note":"March"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201\nbody: %s", rec.Code, rec.Body.String())
	}

	var got core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.ID == "" {
		t.Errorf("created transaction must carry an id")
	}
	if got.Category != "Salary" {
		t.Errorf("category = %q, want %q", got.Category, "Salary")
	}
	if got.Amount.Cents != 180046 {
		t.Errorf("cents = %d, want 180046", got.Amount.Cents)
	}
	if st.Len() != 1 {
		t.Errorf("store has %d records, want 1", st.Len())
	}
}

func TestAddTransactionNumericAmount(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"type":"expense","category":"Coffee","amount":3.5,"date":"2024-03-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201\nbody: %s", rec.Code, rec.Body.String())
	}

	var got core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Amount.Cents != 350 {
		t.Errorf("cents = %d, want 350", got.Amount.Cents)
	}
}

func TestAddTransactionRejections(t *testing.T) {
	srv, st := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty category", `{"type":"expense","category":"  ","amount":"5"}`, http.StatusUnprocessableEntity},
		{"zero amount", `{"type":"expense","category":"Food","amount":"0"}`, http.StatusUnprocessableEntity},
		{"negative amount", `{"type":"expense","category":"Food","amount":"-5"}`, http.StatusUnprocessableEntity},
		{"malformed body", `{"type":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/transactions", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	if st.Len() != 0 {
		t.Errorf("rejected drafts must not be stored, got %d records", st.Len())
	}
}

func TestUpdateTransaction(t *testing.T) {
	srv, _ := newTestServer(t, seedRecords())

	rec := doJSON(t, srv, http.MethodPut, "/api/transactions/t2",
		`{"type":"expense","category":"Housing","amount":"1250","date":"2024-01-03"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	var got core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.ID != "t2" {
		t.Errorf("id = %q, must stay %q", got.ID, "t2")
	}
	if got.Category != "Housing" || got.Amount.Cents != 125000 {
		t.Errorf("unexpected updated record: %+v", got)
	}
}

func TestUpdateAbsentTransaction(t *testing.T) {
	srv, _ := newTestServer(t, seedRecords())

	rec := doJSON(t, srv, http.MethodPut, "/api/transactions/ghost",
		`{"type":"expense","category":"Housing","amount":"10"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRemoveTransaction(t *testing.T) {
	srv, st := newTestServer(t, seedRecords())

	rec := doJSON(t, srv, http.MethodDelete, "/api/transactions/t1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if st.Len() != 2 {
		t.Errorf("store has %d records, want 2", st.Len())
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/transactions/t1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, seedRecords())

	rec := doJSON(t, srv, http.MethodGet, "/api/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got struct {
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
		Balance float64 `json:"balance"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Income != 3500 || got.Expense != 1380.45 || got.Balance != 2119.55 {
		t.Errorf("summary = %+v, want income 3500 expense 1380.45 balance 2119.55", got)
	}
}

func TestSummaryCacheInvalidatedByMutation(t *testing.T) {
	srv, _ := newTestServer(t, seedRecords())

	doJSON(t, srv, http.MethodGet, "/api/summary", "")
	doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"type":"income","category":"Bonus","amount":"100","date":"2024-03-01"}`)

	rec := doJSON(t, srv, http.MethodGet, "/api/summary", "")
	var got struct {
		Income float64 `json:"income"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Income != 3600 {
		t.Errorf("income = %v, want 3600 after mutation", got.Income)
	}
}

func TestMonthlySeriesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, seedRecords())

	rec := doJSON(t, srv, http.MethodGet, "/api/series/monthly", "")
	var got []core.MonthlyPoint
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d points, want 2", len(got))
	}
	if got[0].Month != "2024-01" || got[1].Month != "2024-02" {
		t.Errorf("months = %q, %q; want ascending 2024-01, 2024-02", got[0].Month, got[1].Month)
	}
}

func TestCategoryTotalsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, seedRecords())

	rec := doJSON(t, srv, http.MethodGet, "/api/series/categories", "")
	var got []core.CategoryTotal
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	// Expenses only, descending by total.
	if len(got) != 2 {
		t.Fatalf("got %d totals, want 2", len(got))
	}
	if got[0].Category != "Rent" || got[1].Category != "Groceries" {
		t.Errorf("order = %q, %q; want Rent, Groceries", got[0].Category, got[1].Category)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, seedRecords())

	rec := doJSON(t, srv, http.MethodGet, "/api/categories", "")
	var got []string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	want := []string{"Groceries", "Rent", "Salary"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestExportCSV(t *testing.T) {
	srv, _ := newTestServer(t, seedRecords())

	rec := doJSON(t, srv, http.MethodGet, "/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "spendlite.csv") {
		t.Errorf("Content-Disposition = %q, want attachment filename", cd)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if lines[0] != "id,type,category,amount,date,note" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != 4 {
		t.Errorf("got %d lines, want header plus 3 rows", len(lines))
	}
}

func TestImportRawCSV(t *testing.T) {
	srv, st := newTestServer(t, seedRecords())

	csv := "id,type,category,amount,date,note\n" +
		"t2,expense,Housing,1250,2024-01-02,updated\n" +
		"t9,income,Bonus,500,2024-02-20,\n"

	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(csv))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	var got map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got["imported"] != 2 {
		t.Errorf("imported = %d, want 2", got["imported"])
	}
	if st.Len() != 4 {
		t.Errorf("store has %d records, want 4", st.Len())
	}

	// t2 replaced in place.
	for _, tr := range st.All() {
		if tr.ID == "t2" && tr.Category != "Housing" {
			t.Errorf("t2 category = %q, want Housing", tr.Category)
		}
	}
}

func TestImportMultipart(t *testing.T) {
	srv, st := newTestServer(t, nil)

	var body strings.Builder
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "upload.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fmt.Fprint(fw, "id,type,category,amount,date,note\nt1,expense,Food,10,2024-01-01,\n")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(body.String()))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if st.Len() != 1 {
		t.Errorf("store has %d records, want 1", st.Len())
	}
}

func TestImportMissingColumns(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader("id,type,category\n"))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestLoadSampleEndpoint(t *testing.T) {
	srv, st := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/sample", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var got map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got["loaded"] != 7 {
		t.Errorf("loaded = %d, want 7", got["loaded"])
	}
	if st.Len() != 7 {
		t.Errorf("store has %d records, want 7", st.Len())
	}
}

func TestMutatingRequestsRateLimited(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var last int
	for i := 0; i < 61; i++ {
		rec := doJSON(t, srv, http.MethodDelete, "/api/transactions/none", "")
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("status = %d after 61 mutations, want 429", last)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}
