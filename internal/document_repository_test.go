package internal

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/heinsupport/hein-assist/internal/kv"
	"github.com/heinsupport/hein-assist/testutil"
)

func newTestDocumentRepository(store kv.Store) (*DocumentRepository, *fakeClock) {
	clock := newFakeClock()
	r := NewDocumentRepository(NewDurable(store))
	r.now = clock.Now
	return r, clock
}

func TestDocumentRepository_Upload(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	r, _ := newTestDocumentRepository(mem)
	pdf := testutil.PDFBytes()

	doc, err := r.Upload(ctx, Upload{FileName: "Oven Series 5.pdf", ContentType: PDFMimeType, Data: pdf})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if doc.Name != "Oven Series 5" {
		t.Errorf("Name = %q, want %q", doc.Name, "Oven Series 5")
	}
	if doc.UploadDate != "2025-03-14" {
		t.Errorf("UploadDate = %q, want 2025-03-14", doc.UploadDate)
	}
	mimeType, data, err := DecodeDataURL(doc.Payload)
	if err != nil {
		t.Fatalf("DecodeDataURL() error = %v", err)
	}
	if mimeType != PDFMimeType || !bytes.Equal(data, pdf) {
		t.Errorf("payload decoded to %s with %d bytes, want the uploaded PDF", mimeType, len(data))
	}

	reloaded, _ := newTestDocumentRepository(mem)
	docs := reloaded.Load(ctx)
	if len(docs) != 1 || docs[0].ID != doc.ID || docs[0].Payload != doc.Payload {
		t.Errorf("Load() = %+v, want the uploaded document", docs)
	}
}

func TestDocumentRepository_RejectsNonPDF(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()
	r, _ := newTestDocumentRepository(store)

	if _, err := r.Upload(ctx, Upload{FileName: "manual.pdf", ContentType: PDFMimeType, Data: testutil.PDFBytes()}); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	before := r.List()
	putsBefore := store.puts.Load()

	tests := []struct {
		name    string
		upload  Upload
		wantErr error
	}{
		{"declared png", Upload{FileName: "photo.png", ContentType: "image/png", Data: testutil.PNGBytes()}, ErrUnsupportedDocumentType},
		{"sniffed png", Upload{FileName: "photo.pdf", Data: testutil.PNGBytes()}, ErrUnsupportedDocumentType},
		{"plain text", Upload{FileName: "notes.txt", ContentType: "text/plain", Data: []byte("hello")}, ErrUnsupportedDocumentType},
		{"empty", Upload{FileName: "empty.pdf", ContentType: PDFMimeType}, ErrEmptyDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Upload(ctx, tt.upload)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Upload() error = %v, want %v", err, tt.wantErr)
			}
			if !IsValidationError(err) {
				t.Errorf("Upload() error %v should be a validation error", err)
			}
		})
	}

	if after := r.List(); len(after) != len(before) || after[0].ID != before[0].ID {
		t.Errorf("List() changed after rejected uploads: %+v", after)
	}
	if n := store.puts.Load(); n != putsBefore {
		t.Errorf("rejected uploads wrote %d record(s)", n-putsBefore)
	}
}

func TestDocumentRepository_ListOrder(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	r, _ := newTestDocumentRepository(mem)

	var ids []string
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		doc, err := r.Upload(ctx, Upload{FileName: name, Data: testutil.PDFBytes()})
		if err != nil {
			t.Fatalf("Upload(%s) error = %v", name, err)
		}
		ids = append(ids, doc.ID)
	}

	check := func(label string, docs []Document) {
		t.Helper()
		if len(docs) != 3 {
			t.Fatalf("%s: got %d documents, want 3", label, len(docs))
		}
		for i, want := range []string{ids[2], ids[1], ids[0]} {
			if docs[i].ID != want {
				t.Errorf("%s: position %d = %s, want %s", label, i, docs[i].ID, want)
			}
		}
	}
	check("in memory", r.List())

	reloaded, _ := newTestDocumentRepository(mem)
	check("reloaded", reloaded.Load(ctx))
}

func TestDocumentRepository_Delete(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	r, _ := newTestDocumentRepository(mem)

	doc, _ := r.Upload(ctx, Upload{FileName: "a.pdf", Data: testutil.PDFBytes()})

	notified := 0
	r.Subscribe(func([]Document) { notified++ })

	if err := r.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := r.Delete(ctx, doc.ID); err != nil {
		t.Errorf("second Delete() error = %v, want nil", err)
	}
	if err := r.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("Delete(unknown) error = %v, want nil", err)
	}

	if len(r.List()) != 0 {
		t.Errorf("List() = %+v, want empty", r.List())
	}
	if notified != 1 {
		t.Errorf("got %d notifications, want 1", notified)
	}
	reloaded, _ := newTestDocumentRepository(mem)
	if docs := reloaded.Load(ctx); len(docs) != 0 {
		t.Errorf("deleted document came back after reload: %+v", docs)
	}
}

func TestDocumentRepository_LoadSkipsCorruptRecords(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hein.db")
	good := `{"id":"doc-1","name":"Oven","url":"data:application/pdf;base64,JVBERg==","uploadDate":"2025-01-01","addedAt":"2025-01-01T10:00:00Z"}`
	testutil.CreateKVFixture(t, dbPath, map[string]map[string]string{
		NamespaceManuals: {
			"doc-1": good,
			"doc-2": `{"id":`,
			"doc-3": `{"name":"no id"}`,
		},
	})

	store, err := kv.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer store.Close()

	r := NewDocumentRepository(NewDurable(store))
	docs := r.Load(context.Background())
	if len(docs) != 1 || docs[0].ID != "doc-1" {
		t.Errorf("Load() = %+v, want only doc-1", docs)
	}
}

func TestDocumentRepository_WriteFailure(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()
	r, _ := newTestDocumentRepository(store)
	store.failWrites.Store(true)

	doc, err := r.Upload(ctx, Upload{FileName: "a.pdf", Data: testutil.PDFBytes()})
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("Upload() error = %v, want *StorageError", err)
	}
	if _, ok := r.Get(doc.ID); !ok {
		t.Error("document missing from memory after a failed write")
	}
}

func TestDocumentName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"manual.pdf", "manual"},
		{"Manual.PDF", "Manual"},
		{"/tmp/uploads/oven v2.pdf", "oven v2"},
		{"archive.pdf.zip", "archive.pdf.zip"},
		{"noext", "noext"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := DocumentName(tt.in); got != tt.want {
				t.Errorf("DocumentName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeDataURL(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid", EncodeDataURL(PDFMimeType, []byte("%PDF-1.4")), false},
		{"not a data URL", "https://example.com/a.pdf", true},
		{"no separator", "data:application/pdf;base64", true},
		{"not base64", "data:application/pdf,raw", true},
		{"bad base64", "data:application/pdf;base64,***", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeDataURL(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeDataURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			var parseErr *ParseError
			if tt.wantErr && !errors.As(err, &parseErr) {
				t.Errorf("DecodeDataURL() error = %T, want *ParseError", err)
			}
		})
	}
}

func TestDocumentRepository_UploadDateUsesClock(t *testing.T) {
	r, clock := newTestDocumentRepository(kv.NewMemoryStore())
	clock.Set(time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC))

	doc, err := r.Upload(context.Background(), Upload{FileName: "a.pdf", Data: testutil.PDFBytes()})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.UploadDate != "2024-12-31" {
		t.Errorf("UploadDate = %q, want 2024-12-31", doc.UploadDate)
	}
}
