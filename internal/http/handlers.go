package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"sort"
	"strings"
	"time"

	"spendlite/internal/core"
	"spendlite/internal/csvio"
	"spendlite/internal/log"
)

// maxImportBytes caps the accepted CSV upload size.
const maxImportBytes = 10 << 20

// draftRequest is the JSON body of create and update requests. Amount is kept
// raw so both `"amount": 12.5` and `"amount": "12,5"` are accepted.
type draftRequest struct {
	Type     string          `json:"type"`
	Category string          `json:"category"`
	Amount   json.RawMessage `json:"amount"`
	Date     string          `json:"date"`
	Note     string          `json:"note"`
}

func (d draftRequest) toDraft() core.Draft {
	return core.Draft{
		Kind:     core.Kind(d.Type),
		Category: d.Category,
		Amount:   strings.Trim(string(d.Amount), `"`),
		Date:     d.Date,
		Note:     d.Note,
	}
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func decodeDraft(r *http.Request) (core.Draft, error) {
	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.Draft{}, err
	}
	return req.toDraft(), nil
}

// handleListTransactions returns the filtered records, newest date first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r.URL.Query())
	records := f.Apply(s.store.All())

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})

	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	draft, err := decodeDraft(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	created, err := s.store.Add(r.Context(), draft, today())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.purgeViewCaches()
	s.logger.InfoContext(r.Context(), "Transaction created",
		log.FieldTransactionID, created.ID,
		log.FieldKind, string(created.Kind),
		log.FieldCategory, created.Category,
		log.FieldAmountCents, created.Amount.Cents,
		log.FieldDate, created.Date)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	draft, err := decodeDraft(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	updated, err := s.store.Update(r.Context(), id, draft, today())
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.purgeViewCaches()
	s.logger.InfoContext(r.Context(), "Transaction updated",
		log.FieldTransactionID, updated.ID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleRemoveTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.store.Remove(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	s.purgeViewCaches()
	s.logger.InfoContext(r.Context(), "Transaction removed",
		log.FieldTransactionID, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r.URL.Query())
	key := filterCacheKey(f)

	if sum, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, sum)
		return
	}

	sum := core.Summarize(f.Apply(s.store.All()))
	s.summaryCache.Set(key, sum)
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleMonthlySeries(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r.URL.Query())
	key := filterCacheKey(f)

	if series, ok := s.monthlyCache.Get(key); ok {
		writeJSON(w, http.StatusOK, series)
		return
	}

	series := core.MonthlySeries(f.Apply(s.store.All()))
	if series == nil {
		series = []core.MonthlyPoint{}
	}
	s.monthlyCache.Set(key, series)
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r.URL.Query())
	key := filterCacheKey(f)

	if totals, ok := s.categoryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, totals)
		return
	}

	totals := core.CategoryTotals(f.Apply(s.store.All()))
	if totals == nil {
		totals = []core.CategoryTotal{}
	}
	s.categoryCache.Set(key, totals)
	writeJSON(w, http.StatusOK, totals)
}

// handleCategories returns the distinct category names across all records,
// unfiltered, for populating filter widgets.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := core.Categories(s.store.All())
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, cats)
}

// handleExport streams the current records as a CSV download. The same filter
// parameters as the list endpoint narrow the exported set.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r.URL.Query())
	records := f.Apply(s.store.All())

	text, err := csvio.Encode(records)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "CSV encode failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="spendlite.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)

	s.logger.InfoContext(r.Context(), "Exported records",
		log.FieldOperation, log.OpExport,
		log.FieldCount, len(records))
}

// handleImport merges an uploaded CSV into the collection. The body is either
// raw CSV text or a multipart form with a "file" field.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	text, err := readImportBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	incoming, err := csvio.Decode(text, csvio.DecodeOptions{
		Today: today(),
		NewID: s.store.NewID,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	count := s.store.MergeImport(r.Context(), incoming)
	s.purgeViewCaches()
	s.logger.InfoContext(r.Context(), "Imported records",
		log.FieldOperation, log.OpImport,
		log.FieldCount, count)
	writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}

func readImportBody(r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxImportBytes)

	contentType := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			return "", errors.New("malformed multipart body")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return "", errors.New(`missing "file" field`)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", errors.New("reading upload failed")
		}
		return string(data), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", errors.New("reading request body failed")
	}
	return string(data), nil
}

// handleLoadSample prepends the built-in demo records.
func (s *Server) handleLoadSample(w http.ResponseWriter, r *http.Request) {
	loaded := s.store.LoadSample(r.Context(), today())

	s.purgeViewCaches()
	s.logger.InfoContext(r.Context(), "Sample data loaded",
		log.FieldCount, len(loaded))
	writeJSON(w, http.StatusCreated, map[string]int{"loaded": len(loaded)})
}
