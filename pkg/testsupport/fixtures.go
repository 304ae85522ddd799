// Package testsupport holds fixtures shared by the package tests: golden
// files, parsed pages and a stub prediction endpoint.
package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-predictform/pkg/formdata"
	"github.com/goliatone/go-predictform/pkg/page/htmldoc"
)

// MustLoadJSON decodes a JSON golden file into out.
func MustLoadJSON(t *testing.T, path string, out any) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("load golden: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshal golden %s: %v", path, err)
	}
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
// Returns true if the golden was written.
func WriteGolden(t *testing.T, path string, value any) bool {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustParsePage parses markup into an in-memory document resolving relative
// URLs against base.
func MustParsePage(t *testing.T, markup, base string) *htmldoc.Document {
	t.Helper()

	doc, err := htmldoc.ParseString(markup, htmldoc.WithBaseURL(base))
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	return doc
}

// PredictServer is a stub prediction endpoint answering every POST /predict
// with a fixed JSON body.
type PredictServer struct {
	*httptest.Server

	// Requests receives the payload of every request, in arrival order.
	Requests chan formdata.Values
}

// NewPredictServer starts a stub endpoint that replies with status and body.
// It is closed when the test ends.
func NewPredictServer(t *testing.T, status int, body string) *PredictServer {
	t.Helper()

	ps := &PredictServer{Requests: make(chan formdata.Values, 16)}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			http.NotFound(w, r)
			return
		}
		values, err := formdata.ParseRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ps.Requests <- values
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ps.Server.Close)
	return ps
}
