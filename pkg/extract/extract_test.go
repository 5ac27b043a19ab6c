package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/diegopaiva1/file-search-poc/pkg/log"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	os.Exit(m.Run())
}

func TestNativeTextFamilyPassthrough(t *testing.T) {
	e := NewNative()

	for _, mimeType := range []string{
		"text/plain",
		"text/csv",
		"text/markdown",
		"text/html",
		"application/json",
		"application/xml",
	} {
		got, err := e.Extract(context.Background(), []byte("raw body"), mimeType, "f.txt")
		if err != nil {
			t.Fatalf("Extract(%s) returned error: %v", mimeType, err)
		}
		if got != "raw body" {
			t.Fatalf("Extract(%s) = %q, want verbatim content", mimeType, got)
		}
	}
}

func TestNativeStripsMimeParameters(t *testing.T) {
	e := NewNative()

	got, err := e.Extract(context.Background(), []byte("utf8 text"), "text/plain; charset=utf-8", "f.txt")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if got != "utf8 text" {
		t.Fatalf("Extract = %q, want the text despite the charset parameter", got)
	}
}

func TestNativeUnsupportedKindIsNotAnError(t *testing.T) {
	e := NewNative()

	got, err := e.Extract(context.Background(), []byte{0x50, 0x4b, 0x03, 0x04}, "application/zip", "archive.zip")
	if err != nil {
		t.Fatalf("unsupported kind must not error, got: %v", err)
	}
	if got != "" {
		t.Fatalf("unsupported kind must yield empty text, got %q", got)
	}
}

func TestNativeCorruptPDFIsAnError(t *testing.T) {
	e := NewNative()

	if _, err := e.Extract(context.Background(), []byte("not a pdf at all"), "application/pdf", "broken.pdf"); err == nil {
		t.Fatal("expected an error for unparseable PDF bytes")
	}
}

func TestNativeHonorsCancelledContext(t *testing.T) {
	e := NewNative()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Extract(ctx, []byte("body"), "text/plain", "f.txt"); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}

func TestTikaReturnsServerText(t *testing.T) {
	var gotMethod, gotAccept, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte("extracted by tika"))
	}))
	defer srv.Close()

	e := NewTika(srv.URL)
	got, err := e.Extract(context.Background(), []byte("%PDF-1.4"), "application/pdf", "doc.pdf")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if got != "extracted by tika" {
		t.Fatalf("Extract = %q", got)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("method = %s, want PUT", gotMethod)
	}
	if gotAccept != "text/plain" || gotContentType != "application/pdf" {
		t.Fatalf("headers = Accept %q, Content-Type %q", gotAccept, gotContentType)
	}
}

func TestTikaDefaultsContentType(t *testing.T) {
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	e := NewTika(srv.URL)
	if _, err := e.Extract(context.Background(), []byte("bytes"), "", "blob"); err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if gotContentType != "application/octet-stream" {
		t.Fatalf("Content-Type = %q, want application/octet-stream", gotContentType)
	}
}

func TestTikaUnparseableDocumentIsEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	e := NewTika(srv.URL)
	got, err := e.Extract(context.Background(), []byte("???"), "application/x-unknown", "blob")
	if err != nil {
		t.Fatalf("422 must map to empty text, got error: %v", err)
	}
	if got != "" {
		t.Fatalf("Extract = %q, want empty", got)
	}
}

func TestTikaServerErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "heap exhausted", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewTika(srv.URL)
	if _, err := e.Extract(context.Background(), []byte("doc"), "application/pdf", "doc.pdf"); err == nil {
		t.Fatal("expected an error for a 500 from tika")
	}
}
