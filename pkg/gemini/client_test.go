package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/ruialonso/taxilog-backend/pkg/errors"
)

func modelAnswer(t *testing.T, text string) string {
	t.Helper()

	body := map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{{"text": text}},
			},
		}},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal answer: %v", err)
	}
	return string(raw)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient("   "); err == nil {
		t.Fatal("expected error for blank api key")
	}
}

func TestExtractTicket(t *testing.T) {
	var gotPath string
	var gotReq generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		answer := "```json\n{\"services\":[{\"date\":\"2026-03-14\",\"origin\":\"Hospital Clinico\",\"destination\":\"Plaza Mayor\",\"company\":\"Radio Taxi\",\"observations\":\"wheelchair\"}]}\n```"
		_, _ = w.Write([]byte(modelAnswer(t, answer)))
	}))
	defer srv.Close()

	client, err := NewClient("test-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithModel("test-model"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	services, err := client.ExtractTicket(context.Background(), []byte("fake-image"), "image/png")
	if err != nil {
		t.Fatalf("extract ticket: %v", err)
	}

	if gotPath != "/models/test-model:generateContent" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if len(gotReq.Contents) != 1 || len(gotReq.Contents[0].Parts) != 2 {
		t.Fatalf("unexpected request shape: %+v", gotReq)
	}
	if gotReq.Contents[0].Parts[1].InlineData == nil {
		t.Fatal("expected inline image data")
	}
	if gotReq.Contents[0].Parts[1].InlineData.MimeType != "image/png" {
		t.Fatalf("unexpected mime type %q", gotReq.Contents[0].Parts[1].InlineData.MimeType)
	}

	if len(services) != 1 {
		t.Fatalf("expected one service, got %d", len(services))
	}
	if services[0].Origin != "Hospital Clinico" || services[0].Destination != "Plaza Mayor" {
		t.Fatalf("unexpected service: %+v", services[0])
	}
	if services[0].Observations != "wheelchair" {
		t.Fatalf("unexpected observations: %q", services[0].Observations)
	}
}

func TestExtractTicketRequiresImage(t *testing.T) {
	client, err := NewClient("test-key")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.ExtractTicket(context.Background(), nil, "image/jpeg")
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExtractTicketUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewClient("test-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.ExtractTicket(context.Background(), []byte("fake-image"), "")
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestParseModelAnswer(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    int
		wantErr bool
	}{
		{
			name: "plain object",
			text: `{"date":"2026-03-14","origin":"A","destination":"B","company":"C","observations":""}`,
			want: 1,
		},
		{
			name: "fenced array",
			text: "```json\n{\"services\":[{\"origin\":\"A\",\"destination\":\"B\"},{\"origin\":\"C\",\"destination\":\"D\"}]}\n```",
			want: 2,
		},
		{
			name:    "prose answer",
			text:    "I could not read the ticket.",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			services, err := parseModelAnswer(tc.text)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if len(services) != tc.want {
				t.Fatalf("expected %d services, got %d", tc.want, len(services))
			}
		})
	}
}
