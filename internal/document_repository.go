package internal

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// PDFMimeType is the only payload type accepted for manuals
const PDFMimeType = "application/pdf"

// Upload is a file offered for storage as a manual
type Upload struct {
	FileName    string
	ContentType string // declared type; sniffed from Data when empty
	Data        []byte
}

// DocumentRepository stores manuals: metadata plus a self-describing
// payload, one durable record per document. The in-memory list is ordered
// most recently added first and replaced whole on every mutation.
type DocumentRepository struct {
	durable *Durable
	now     func() time.Time

	writeMu sync.Mutex

	mu   sync.RWMutex
	docs []Document

	listeners notifier[[]Document]
}

// NewDocumentRepository creates an empty repository backed by durable
func NewDocumentRepository(durable *Durable) *DocumentRepository {
	return &DocumentRepository{
		durable: durable,
		now:     time.Now,
		docs:    []Document{},
	}
}

// Load reads every stored document. Unparseable records are skipped.
func (r *DocumentRepository) Load(ctx context.Context) []Document {
	docs := loadAll[Document](ctx, r.durable, NamespaceManuals)
	valid := docs[:0]
	for _, d := range docs {
		if d.ID == "" {
			LogWarn("Skipping stored manual without id")
			continue
		}
		valid = append(valid, d)
	}
	sortDocuments(valid)

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	r.swap(valid)
	LogDebug("Loaded %d manual(s)", len(valid))
	return r.List()
}

// List returns the documents, most recently added first
func (r *DocumentRepository) List() []Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Document, len(r.docs))
	copy(out, r.docs)
	return out
}

// Get returns the document with the given id
func (r *DocumentRepository) Get(id string) (Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.docs {
		if d.ID == id {
			return d, true
		}
	}
	return Document{}, false
}

// Subscribe registers fn to receive the list after every mutation
func (r *DocumentRepository) Subscribe(fn func([]Document)) func() {
	return r.listeners.subscribe(fn)
}

// Upload validates u and stores it as a new document. A non-PDF payload is
// rejected with ErrUnsupportedDocumentType before anything is written.
func (r *DocumentRepository) Upload(ctx context.Context, u Upload) (Document, error) {
	mimeType, err := ValidateUpload(u)
	if err != nil {
		return Document{}, err
	}

	now := r.now()
	doc := Document{
		ID:         NewID(),
		Name:       DocumentName(u.FileName),
		Payload:    EncodeDataURL(mimeType, u.Data),
		UploadDate: now.Format(uploadDateLayout),
		AddedAt:    now,
	}
	return doc, r.Insert(ctx, doc)
}

// Insert persists doc and places it at the front of the list. The list is
// updated even when the write fails; the *StorageError is returned.
func (r *DocumentRepository) Insert(ctx context.Context, doc Document) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	err := r.durable.Save(context.WithoutCancel(ctx), NamespaceManuals, doc.ID, doc)
	if err != nil {
		LogError("Failed to persist manual: %v", err)
	}

	current := r.List()
	next := make([]Document, 0, len(current)+1)
	next = append(next, doc)
	for _, d := range current {
		if d.ID != doc.ID {
			next = append(next, d)
		}
	}
	r.swap(next)
	r.listeners.publish(r.List())
	return err
}

// Delete removes the document. Deleting an unknown id is not an error.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	err := r.durable.Remove(context.WithoutCancel(ctx), NamespaceManuals, id)
	if err != nil {
		LogError("Failed to remove manual: %v", err)
	}

	current := r.List()
	next := make([]Document, 0, len(current))
	for _, d := range current {
		if d.ID != id {
			next = append(next, d)
		}
	}
	if len(next) == len(current) {
		return err
	}
	r.swap(next)
	r.listeners.publish(r.List())
	return err
}

func (r *DocumentRepository) swap(next []Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = next
}

func sortDocuments(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].AddedAt.Equal(docs[j].AddedAt) {
			return docs[i].AddedAt.After(docs[j].AddedAt)
		}
		return docs[i].UploadDate > docs[j].UploadDate
	})
}

// ValidateUpload checks that u carries a non-empty PDF and returns the
// MIME type to store.
func ValidateUpload(u Upload) (string, error) {
	if len(u.Data) == 0 {
		return "", ErrEmptyDocument
	}

	declared := strings.TrimSpace(u.ContentType)
	if declared == "" {
		declared = http.DetectContentType(u.Data)
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil || mediaType != PDFMimeType {
		return "", fmt.Errorf("%w: got %q", ErrUnsupportedDocumentType, declared)
	}
	return PDFMimeType, nil
}

// DocumentName derives the display name of a manual from its file name
func DocumentName(fileName string) string {
	base := filepath.Base(fileName)
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".pdf") {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// EncodeDataURL packs a payload with its MIME type: data:<type>;base64,<data>
func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL unpacks a payload produced by EncodeDataURL
func DecodeDataURL(payload string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(payload, "data:")
	if !ok {
		return "", nil, &ParseError{Source: "document", Key: "payload", Err: fmt.Errorf("not a data URL")}
	}
	header, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, &ParseError{Source: "document", Key: "payload", Err: fmt.Errorf("missing data separator")}
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, &ParseError{Source: "document", Key: "payload", Err: fmt.Errorf("payload is not base64 encoded")}
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, &ParseError{Source: "document", Key: "payload", Err: err}
	}
	return mimeType, data, nil
}
