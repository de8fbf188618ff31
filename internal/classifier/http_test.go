package classifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fixroute/backend/internal/models"
)

func TestHTTPClassifier_ValidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"category": "ELECTRICAL",
			"severity": "URGENT",
			"estimated_cost": 320,
			"estimated_duration_hours": 2,
			"confidence": 0.91,
			"reasoning": "exposed wiring",
			"model_version": "clf-2"
		}`))
	}))
	defer srv.Close()

	c, _, err := HTTPClassifier{BaseURL: srv.URL}.Classify(context.Background(), Request{
		IssueID: "i1", Title: "Sparking outlet", Description: "outlet sparks when used",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Category != models.CategoryElectrical || c.Severity != models.SeverityUrgent {
		t.Fatalf("unexpected classification %s/%s", c.Category, c.Severity)
	}
	if c.Source != SourceRemote {
		t.Fatalf("expected remote source, got %s", c.Source)
	}
	if c.IssueID != "i1" {
		t.Fatalf("expected issue id to carry through, got %s", c.IssueID)
	}
}

func TestHTTPClassifier_ClampsOutOfRangeResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"category":"OTHER","severity":"??","estimated_cost":-5,"confidence":2.0}`))
	}))
	defer srv.Close()

	c, _, err := HTTPClassifier{BaseURL: srv.URL}.Classify(context.Background(), Request{IssueID: "i2", Title: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Category != models.CategoryGeneral {
		t.Fatalf("expected GENERAL, got %s", c.Category)
	}
	if c.EstimatedCost != MinCost || c.Confidence != 1 {
		t.Fatalf("expected clamped cost/confidence, got %f/%f", c.EstimatedCost, c.Confidence)
	}
}

func TestHTTPClassifier_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	_, _, err := HTTPClassifier{BaseURL: srv.URL}.Classify(context.Background(), Request{IssueID: "i3"})
	if err == nil {
		t.Fatal("expected error for malformed response")
	}
}

func TestHTTPClassifier_MissingRequiredFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"severity":"LOW"}`))
	}))
	defer srv.Close()

	_, _, err := HTTPClassifier{BaseURL: srv.URL}.Classify(context.Background(), Request{IssueID: "i4"})
	if err == nil {
		t.Fatal("expected error when category and confidence are absent")
	}
}

func TestHTTPClassifier_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, _, err := HTTPClassifier{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}.Classify(context.Background(), Request{IssueID: "i5"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestHTTPClassifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, _, err := HTTPClassifier{BaseURL: srv.URL}.Classify(context.Background(), Request{IssueID: "i6"})
	if err == nil {
		t.Fatal("expected error for 5xx response")
	}
}
