package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/ziadkadry99/csvstats/internal/records"
	"github.com/ziadkadry99/csvstats/internal/routes"
	"github.com/ziadkadry99/csvstats/internal/state"
	"github.com/ziadkadry99/csvstats/internal/stats"
)

const errNoFile = "no file loaded"

// fileResponse describes the loaded file without its rows.
type fileResponse struct {
	Name       string     `json:"name"`
	Header     []string   `json:"header"`
	TimeColumn string     `json:"time_column"`
	Records    int        `json:"records"`
	Skipped    int        `json:"skipped"`
	First      *time.Time `json:"first,omitempty"`
	Last       *time.Time `json:"last,omitempty"`
	Years      []int      `json:"years"`
}

// stateResponse is the JSON form of a session's state. Rows are paged
// through /api/records instead of being inlined.
type stateResponse struct {
	FileName      string        `json:"file_name"`
	File          *fileResponse `json:"file"`
	Filters       stats.Filters `json:"filters"`
	FilteredCount int           `json:"filtered_count"`
	SpinnerStatus bool          `json:"spinner_status"`
}

// recordsResponse is one page of filtered data.
type recordsResponse struct {
	Total   int              `json:"total"`
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
	Header  []string         `json:"header"`
	Records []records.Record `json:"records"`
}

// statisticsResponse backs the statistics view.
type statisticsResponse struct {
	FileName     string        `json:"file_name"`
	Filters      stats.Filters `json:"filters"`
	TotalRecords int           `json:"total_records"` // before filtering
	Summary      stats.Summary `json:"summary"`
}

// calendarResponse backs the calendar view.
type calendarResponse struct {
	Years    []int          `json:"years"`
	Calendar stats.Calendar `json:"calendar"`
}

func newFileResponse(st state.State) *fileResponse {
	if !st.HasFileData() {
		return nil
	}
	ds := st.File.Data
	resp := &fileResponse{
		Name:       st.File.Name,
		Header:     ds.Header,
		TimeColumn: ds.TimeColumnName(),
		Records:    ds.Len(),
		Skipped:    ds.Skipped,
		Years:      stats.Years(ds.Records),
	}
	if first, last, ok := ds.Bounds(); ok {
		resp.First, resp.Last = &first, &last
	}
	return resp
}

func newStateResponse(st state.State) stateResponse {
	return stateResponse{
		FileName:      st.File.Name,
		File:          newFileResponse(st),
		Filters:       st.Filters,
		FilteredCount: len(st.FilteredData),
		SpinnerStatus: st.SpinnerStatus,
	}
}

func (a *API) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateResponse(storeFrom(r.Context()).State()))
}

func (a *API) handleResetState(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r.Context())
	store.Reset()
	writeJSON(w, http.StatusOK, newStateResponse(store.State()))
}

func (a *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r.Context())
	tooLarge := fmt.Sprintf("file exceeds the %d MB upload limit", a.maxUpload>>20)

	if r.ContentLength > a.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, tooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeError(w, http.StatusRequestEntityTooLarge, tooLarge)
		case errors.Is(err, http.ErrMissingFile):
			writeError(w, http.StatusBadRequest, "file is required")
		default:
			writeError(w, http.StatusBadRequest, "invalid multipart form")
		}
		return
	}
	defer file.Close()

	store.ShowSpinner()
	ds, err := records.Parse(file, a.parse)
	if err != nil {
		store.ShowSpinner(false)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	store.Commit(state.Batch(
		state.SetFileName(header.Filename),
		state.SetFileData(ds),
		state.SetSpinnerStatus(false),
	))
	log.Printf("api: loaded %s (%d records, %d skipped)", header.Filename, ds.Len(), ds.Skipped)
	writeJSON(w, http.StatusOK, newStateResponse(store.State()))
}

func (a *API) handleGetFile(w http.ResponseWriter, r *http.Request) {
	st := storeFrom(r.Context()).State()
	if !st.HasFileData() {
		writeError(w, http.StatusNotFound, errNoFile)
		return
	}
	writeJSON(w, http.StatusOK, newFileResponse(st))
}

func (a *API) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r.Context())
	store.Commit(state.Batch(state.SetFileName(""), state.SetFileData(nil)))
	writeJSON(w, http.StatusOK, newStateResponse(store.State()))
}

func (a *API) handleGetFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, storeFrom(r.Context()).Filters())
}

func (a *API) handlePutFilters(w http.ResponseWriter, r *http.Request) {
	var f stats.Filters
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := f.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	store := storeFrom(r.Context())
	store.SetFilters(f)
	writeJSON(w, http.StatusOK, newStateResponse(store.State()))
}

// filterPatches maps each filter field to the transition that sets it.
// A JSON null unsets the field.
var filterPatches = map[string]func(json.RawMessage) (state.Mutation, error){
	"date_from": patchPtr(state.SetFilterDateFrom),
	"date_to":   patchPtr(state.SetFilterDateTo),
	"month":     patchPtr(state.SetFilterMonth),
	"week":      patchPtr(state.SetFilterWeek),
	"weekday":   patchPtr(state.SetFilterWeekday),
	"hour":      patchPtr(state.SetFilterHour),
	"days": func(raw json.RawMessage) (state.Mutation, error) {
		var days []stats.Date
		if err := json.Unmarshal(raw, &days); err != nil {
			return nil, err
		}
		return state.SetFilterDays(days), nil
	},
}

func patchPtr[T any](set func(*T) state.Mutation) func(json.RawMessage) (state.Mutation, error) {
	return func(raw json.RawMessage) (state.Mutation, error) {
		var v *T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return set(v), nil
	}
}

func (a *API) handlePatchFilters(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	muts := make([]state.Mutation, 0, len(keys))
	for _, k := range keys {
		decode, ok := filterPatches[k]
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown filter "+strconv.Quote(k))
			return
		}
		m, err := decode(patch[k])
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s: %v", k, err))
			return
		}
		muts = append(muts, m)
	}

	store := storeFrom(r.Context())
	next, err := store.CommitIf(state.Batch(muts...), func(st state.State) error {
		return st.Filters.Validate()
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(next))
}

func (a *API) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r.Context())
	store.Commit(state.ClearFilters())
	writeJSON(w, http.StatusOK, newStateResponse(store.State()))
}

// queryInt reads a non-negative integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

func (a *API) handleRecords(w http.ResponseWriter, r *http.Request) {
	st := storeFrom(r.Context()).State()
	if !st.HasFileData() {
		writeError(w, http.StatusConflict, errNoFile)
		return
	}

	limit, err := queryInt(r, "limit", defaultRecordLimit)
	if err == nil && limit == 0 {
		err = errors.New("limit must be at least 1")
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit > maxRecordLimit {
		limit = maxRecordLimit
	}

	data := st.FilteredData
	start := min(offset, len(data))
	end := min(start+limit, len(data))
	page := data[start:end]
	if page == nil {
		page = []records.Record{}
	}

	writeJSON(w, http.StatusOK, recordsResponse{
		Total:   len(data),
		Offset:  offset,
		Limit:   limit,
		Header:  st.File.Data.Header,
		Records: page,
	})
}

func (a *API) handleStatistics(w http.ResponseWriter, r *http.Request) {
	st := storeFrom(r.Context()).State()
	if !st.HasFileData() {
		writeError(w, http.StatusConflict, errNoFile)
		return
	}
	writeJSON(w, http.StatusOK, statisticsResponse{
		FileName:     st.File.Name,
		Filters:      st.Filters,
		TotalRecords: st.File.Data.Len(),
		Summary:      stats.Summarize(st.FilteredData),
	})
}

func (a *API) handleCalendar(w http.ResponseWriter, r *http.Request) {
	st := storeFrom(r.Context()).State()
	if !st.HasFileData() {
		writeError(w, http.StatusConflict, errNoFile)
		return
	}

	var year int
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1 || y > 9999 {
			writeError(w, http.StatusBadRequest, "year must be between 1 and 9999")
			return
		}
		year = y
	} else {
		_, last, _ := st.File.Data.Bounds()
		year = last.Year()
	}

	writeJSON(w, http.StatusOK, calendarResponse{
		Years:    stats.Years(st.File.Data.Records),
		Calendar: stats.BuildCalendar(st.FilteredData, year),
	})
}

func (a *API) handleSpinner(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Show *bool `json:"show"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	store := storeFrom(r.Context())
	if body.Show == nil {
		store.ShowSpinner()
	} else {
		store.ShowSpinner(*body.Show)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"spinner_status": store.SpinnerStatus()})
}

func (a *API) handleRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.router.Routes())
}

func (a *API) handleNavigate(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = routes.PathStatistics
	}
	nav, err := a.router.Navigate(path, storeFrom(r.Context()).State())
	if err != nil {
		if errors.Is(err, routes.ErrRedirectLoop) {
			writeError(w, http.StatusLoopDetected, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, nav)
}
