package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/scorelift/scorelift/pkg/musicxml"
	"github.com/scorelift/scorelift/pkg/runs"
	"github.com/scorelift/scorelift/pkg/score"
)

const apiScore = `<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="3.1">
  <part-list>
    <score-part id="P1"><part-name>Voice</part-name></score-part>
  </part-list>
  <part id="P1">
    <measure number="1">
      <note><pitch><step>C</step><octave>4</octave></pitch><duration>1</duration></note>
    </measure>
    <measure number="2">
      <note><pitch><step>F</step><alter>1</alter><octave>4</octave></pitch><duration>1</duration></note>
    </measure>
  </part>
</score-partwise>
`

func TestAPIHealthz(t *testing.T) {
	srv := httptest.NewServer(newAPIRouter(nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q", body["status"])
	}
}

func TestAPITranspose(t *testing.T) {
	srv := httptest.NewServer(newAPIRouter(nil))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/transpose?start_measure=2&interval=-m2", "application/xml", strings.NewReader(apiScore))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "musicxml") {
		t.Errorf("content type = %q", ct)
	}

	s, err := musicxml.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	measures := s.Parts()[0].Measures()
	first, _ := measures[0].Notes()[0].Pitch()
	if (first != score.Pitch{Step: 'C', Alter: 0, Octave: 4}) {
		t.Errorf("measure 1 pitch = %s, want C4 untouched", first)
	}
	second, _ := measures[1].Notes()[0].Pitch()
	if (second != score.Pitch{Step: 'E', Alter: 1, Octave: 4}) {
		t.Errorf("measure 2 pitch = %s, want E#4", second)
	}
}

func TestAPITransposeBadRequests(t *testing.T) {
	srv := httptest.NewServer(newAPIRouter(nil))
	defer srv.Close()

	tests := []struct {
		name string
		url  string
		body string
	}{
		{"bad interval", "/v1/transpose?interval=x9", apiScore},
		{"bad start measure", "/v1/transpose?start_measure=zero", apiScore},
		{"not musicxml", "/v1/transpose", "<html/>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+tt.url, "application/xml", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["code"] == "" {
				t.Error("error response should carry a code")
			}
		})
	}
}

func TestAPIRuns(t *testing.T) {
	store, err := runs.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	rec := runs.New("hymn.pdf")
	rec.Finish(nil)
	if err := store.Put(context.Background(), rec); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(newAPIRouter(store))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/runs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var list []*runs.Record
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != rec.ID {
		t.Errorf("list = %+v", list)
	}

	one, err := http.Get(srv.URL + "/v1/runs/" + rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer one.Body.Close()
	if one.StatusCode != http.StatusOK {
		t.Errorf("get status = %d", one.StatusCode)
	}

	missing, err := http.Get(srv.URL + "/v1/runs/nope")
	if err != nil {
		t.Fatal(err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", missing.StatusCode)
	}
}
