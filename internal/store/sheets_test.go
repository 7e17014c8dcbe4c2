package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type fakeSheetsAPI struct {
	mu    sync.Mutex
	calls []string
	body  map[string]any
	query map[string]string
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	op := "get"
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		op = "append"
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":clear"):
		op = "clear"
	case r.Method == http.MethodPut:
		op = "update"
	}
	f.calls = append(f.calls, op)
	f.query = map[string]string{"valueInputOption": r.URL.Query().Get("valueInputOption")}
	f.body = nil
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&f.body)
	}

	w.Header().Set("Content-Type", "application/json")
	if op == "get" {
		_, _ = w.Write([]byte(`{"range":"Eventos!A1:C2","majorDimension":"ROWS","values":[["ID","Nome","Raio"],["ev_1","Aula",100]]}`))
		return
	}
	_, _ = w.Write([]byte(`{}`))
}

func newTestSheets(t *testing.T) (*Sheets, *fakeSheetsAPI) {
	t.Helper()
	api := &fakeSheetsAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	tbl, err := NewSheets(context.Background(), "sheet-123",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return tbl, api
}

func TestNewSheetsRequiresSpreadsheetID(t *testing.T) {
	_, err := NewSheets(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestServiceAccountRequiresCredentials(t *testing.T) {
	_, err := ServiceAccount(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = ServiceAccount(context.Background(), "", "{not json")
	assert.Error(t, err)
}

func TestSheetsReadStringifiesValues(t *testing.T) {
	tbl, _ := newTestSheets(t)

	rows, err := tbl.Read(context.Background(), "Eventos!A:C")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ID", "Nome", "Raio"}, {"ev_1", "Aula", "100"}}, rows)
}

func TestSheetsWritesUseRawInput(t *testing.T) {
	tbl, api := newTestSheets(t)
	ctx := context.Background()

	require.NoError(t, tbl.Append(ctx, "Eventos!A:C", [][]string{{"ev_2", "Prova", "50"}}))
	assert.Equal(t, "RAW", api.query["valueInputOption"])
	assert.Equal(t, []any{[]any{"ev_2", "Prova", "50"}}, api.body["values"])

	require.NoError(t, tbl.Update(ctx, "Eventos!A2:C2", [][]string{{"ev_1", "Aula 2", "75"}}))
	assert.Equal(t, "RAW", api.query["valueInputOption"])

	require.NoError(t, tbl.Clear(ctx, "Eventos!A2:C2"))
	assert.Equal(t, []string{"append", "update", "clear"}, api.calls)
}
