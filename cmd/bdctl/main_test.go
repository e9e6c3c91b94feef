package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBoard() BoardResponse {
	return BoardResponse{
		Seq:     7,
		GroupBy: "status",
		Source:  "view",
		Time:    time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Records: 3,
		Buckets: []BucketPayload{
			{Name: "todo", Label: "To Do", Records: []TaskRecord{
				{ID: "1", Title: "write spec"},
			}},
			{Name: "done", Records: []TaskRecord{
				{ID: "2", Title: "ship it"},
			}},
			{Name: "none", Records: []TaskRecord{
				{ID: "3"},
			}},
		},
	}
}

func TestFormatBoard(t *testing.T) {
	out := formatBoard(sampleBoard())

	assert.Contains(t, out, "seq 7")
	assert.Contains(t, out, "grouped by status")
	assert.Contains(t, out, "To Do (1)")
	assert.Contains(t, out, "done (1)")
	assert.Contains(t, out, "1  write spec")
	// Untitled records print the id alone.
	assert.Contains(t, out, "    3\n")
}

func TestFormatFrameLine(t *testing.T) {
	line := formatFrameLine(sampleBoard())

	assert.Contains(t, line, "seq=7")
	assert.Contains(t, line, "group_by=status")
	assert.Contains(t, line, "records=3")
	assert.Contains(t, line, "todo=1 done=1 none=1")
}

func TestCheckStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/board" {
			http.Error(w, "no board rendered yet", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ok, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer ok.Body.Close()
	assert.NoError(t, checkStatus(ok))

	missing, err := http.Get(srv.URL + "/board")
	require.NoError(t, err)
	defer missing.Body.Close()

	err = checkStatus(missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "no board rendered yet")
}
