package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bryanwahyu/cloudvision/internal/domain/analysis"
)

// completionHandler answers chat-completion requests, choosing the
// annotation payload by which feature prompt appears in the request.
func completionHandler(t *testing.T, answers map[string]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read request: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		for marker, content := range answers {
			if strings.Contains(string(body), marker) {
				fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
				return
			}
		}
		t.Errorf("request matched no feature prompt: %s", body)
		http.Error(w, "unknown prompt", http.StatusBadRequest)
	}
}

func defaultAnswers() map[string]string {
	return map[string]string{
		"descriptive labels": `{"labels":[{"description":"cat","score":0.98},{"description":"pet","score":0.75}]}`,
		"physical objects":   `{"objects":[{"name":"Cat","score":0.91}]}`,
		"readable text":      `{"text":"HELLO"}`,
		"human faces":        `{"faces":2}`,
	}
}

func TestAnnotateAssemblesAllFeatures(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, defaultAnswers()))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", "gpt-4o", server.URL+"/v1")
	ann, err := client.Annotate(context.Background(), []byte("\x89PNG\r\n\x1a\nfake"))
	if err != nil {
		t.Fatalf("Annotate returned error: %v", err)
	}

	if len(ann.Labels) != 2 || ann.Labels[0].Description != "cat" || ann.Labels[0].Score != 0.98 {
		t.Errorf("unexpected labels: %#v", ann.Labels)
	}
	if len(ann.Objects) != 1 || ann.Objects[0].Name != "Cat" {
		t.Errorf("unexpected objects: %#v", ann.Objects)
	}
	if ann.Text != "HELLO" {
		t.Errorf("text = %q", ann.Text)
	}
	if ann.Faces != 2 {
		t.Errorf("faces = %d", ann.Faces)
	}
}

func TestAnnotateTruncatesLongLists(t *testing.T) {
	var labels struct {
		Labels []analysis.Label `json:"labels"`
	}
	for i := 0; i < 12; i++ {
		labels.Labels = append(labels.Labels, analysis.Label{Description: fmt.Sprintf("label-%d", i), Score: 0.5})
	}
	var objects struct {
		Objects []analysis.Object `json:"objects"`
	}
	for i := 0; i < 7; i++ {
		objects.Objects = append(objects.Objects, analysis.Object{Name: fmt.Sprintf("object-%d", i), Score: 0.5})
	}
	labelJSON, _ := json.Marshal(labels)
	objectJSON, _ := json.Marshal(objects)

	answers := defaultAnswers()
	answers["descriptive labels"] = string(labelJSON)
	answers["physical objects"] = string(objectJSON)

	server := httptest.NewServer(completionHandler(t, answers))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", "", server.URL+"/v1")
	ann, err := client.Annotate(context.Background(), []byte("fake image"))
	if err != nil {
		t.Fatalf("Annotate returned error: %v", err)
	}
	if len(ann.Labels) != analysis.MaxLabels {
		t.Errorf("expected %d labels, got %d", analysis.MaxLabels, len(ann.Labels))
	}
	if len(ann.Objects) != analysis.MaxObjects {
		t.Errorf("expected %d objects, got %d", analysis.MaxObjects, len(ann.Objects))
	}
}

func TestAnnotateClampsNegativeFaces(t *testing.T) {
	answers := defaultAnswers()
	answers["human faces"] = `{"faces":-3}`

	server := httptest.NewServer(completionHandler(t, answers))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", "gpt-4o", server.URL+"/v1")
	ann, err := client.Annotate(context.Background(), []byte("fake image"))
	if err != nil {
		t.Fatalf("Annotate returned error: %v", err)
	}
	if ann.Faces != 0 {
		t.Errorf("faces = %d, want 0", ann.Faces)
	}
}

func TestAnnotateFailsWhenOneFeatureFails(t *testing.T) {
	answers := defaultAnswers()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "physical objects") {
			http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
			return
		}
		for marker, content := range answers {
			if strings.Contains(string(body), marker) {
				fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
				return
			}
		}
		http.Error(w, "unknown prompt", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", "gpt-4o", server.URL+"/v1")
	_, err := client.Annotate(context.Background(), []byte("fake image"))
	if err == nil {
		t.Fatal("expected error when a feature request fails")
	}
	if !strings.Contains(err.Error(), "object detection") {
		t.Fatalf("error should name the failed feature, got %v", err)
	}
}

func TestAnnotateRejectsMalformedContent(t *testing.T) {
	answers := defaultAnswers()
	answers["descriptive labels"] = `not json at all`

	server := httptest.NewServer(completionHandler(t, answers))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", "gpt-4o", server.URL+"/v1")
	_, err := client.Annotate(context.Background(), []byte("fake image"))
	if err == nil || !strings.Contains(err.Error(), "label detection") {
		t.Fatalf("expected a label decode error, got %v", err)
	}
}

func TestDataURLDetectsImageType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000000000")
	if got := dataURL(png); !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("dataURL = %q", got)
	}
	if got := dataURL([]byte("plain text payload")); !strings.HasPrefix(got, "data:application/octet-stream;base64,") {
		t.Errorf("dataURL = %q", got)
	}
}
