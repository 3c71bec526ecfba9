package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeCluster answers the handful of endpoints the client uses and keeps
// indexed documents in memory.
type fakeCluster struct {
	mu      sync.Mutex
	indices map[string]bool
	docs    map[string]json.RawMessage
	queries []string
}

func newFakeCluster(t *testing.T) (*fakeCluster, *Client) {
	t.Helper()
	fc := &fakeCluster{indices: map[string]bool{}, docs: map[string]json.RawMessage{}}
	srv := httptest.NewServer(fc)
	t.Cleanup(srv.Close)

	c, err := NewClient(&Config{Addresses: []string{srv.URL}})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return fc, c
}

func (fc *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case r.URL.Path == "/":
		io.WriteString(w, `{"version":{"number":"8.19.0"},"tagline":"You Know, for Search"}`)
	case len(parts) == 1 && r.Method == http.MethodHead:
		if !fc.indices[parts[0]] {
			w.WriteHeader(http.StatusNotFound)
		}
	case len(parts) == 1 && r.Method == http.MethodPut:
		fc.indices[parts[0]] = true
		io.WriteString(w, `{"acknowledged":true}`)
	case len(parts) == 3 && parts[1] == "_doc" && r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		fc.docs[parts[2]] = body
		io.WriteString(w, `{"result":"created"}`)
	case len(parts) == 3 && parts[1] == "_doc" && r.Method == http.MethodDelete:
		if _, ok := fc.docs[parts[2]]; !ok {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"result":"not_found"}`)
			return
		}
		delete(fc.docs, parts[2])
		io.WriteString(w, `{"result":"deleted"}`)
	case len(parts) == 2 && parts[1] == "_search":
		body, _ := io.ReadAll(r.Body)
		fc.queries = append(fc.queries, string(body))
		type hit struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		}
		var hits []hit
		for id, doc := range fc.docs {
			hits = append(hits, hit{ID: id, Source: doc})
		}
		resp := map[string]any{"hits": map[string]any{"total": map[string]any{"value": len(hits)}, "hits": hits}}
		json.NewEncoder(w).Encode(resp)
	default:
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"unexpected request"}`)
	}
}

func TestIndexSearchDelete(t *testing.T) {
	fc, c := newFakeCluster(t)
	ctx := context.Background()

	if err := c.CreateIndex(ctx, "donation_products", `{"mappings":{}}`); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if !fc.indices["donation_products"] {
		t.Fatal("index was not created")
	}
	// Second call sees the index and does nothing.
	if err := c.CreateIndex(ctx, "donation_products", `{"mappings":{}}`); err != nil {
		t.Fatalf("CreateIndex again: %v", err)
	}

	doc := map[string]string{"id": "p1", "name": "Rice"}
	if err := c.Index(ctx, "donation_products", "p1", doc); err != nil {
		t.Fatalf("Index: %v", err)
	}

	res, err := c.Search(ctx, "donation_products", map[string]any{"query": map[string]any{"match_all": map[string]any{}}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Hits.Total.Value != 1 || len(res.Hits.Hits) != 1 || res.Hits.Hits[0].ID != "p1" {
		t.Fatalf("unexpected hits %+v", res.Hits)
	}
	if !strings.Contains(fc.queries[0], "match_all") {
		t.Errorf("query body not forwarded: %s", fc.queries[0])
	}

	if err := c.Delete(ctx, "donation_products", "p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := c.Delete(ctx, "donation_products", "p1"); err != nil {
		t.Fatalf("Delete of missing doc should succeed: %v", err)
	}
}
