// Package session manages OCR sessions: uploads, page rasterization, OCR,
// prompt-reverse descriptions and the assembled artifact groups.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hydroluxe/prodkb/backend/internal/progress"
	"github.com/hydroluxe/prodkb/backend/internal/util"
	"github.com/hydroluxe/prodkb/backend/pkg/ai"
)

// ErrNotFound signals an unknown session id.
var ErrNotFound = errors.New("session: not found")

// Artifact is one OCR output file.
type Artifact struct {
	Path string `json:"path"`
	// Kind is image, markdown, diagram or file, classified by suffix.
	Kind string `json:"kind"`
}

// Group collects the per-page artifacts of one source document.
type Group struct {
	Source string `json:"source"`
	// Label is products or accessories.
	Label     string     `json:"label"`
	Pages     []string   `json:"pages"`
	Artifacts []Artifact `json:"artifacts"`
}

// Record is the persisted session state.
type Record struct {
	ID           string  `json:"id"`
	ProductName  string  `json:"product_name"`
	BOMCode      string  `json:"bom_code"`
	BOMType      string  `json:"bom_type"`
	MaterialCode string  `json:"material_code,omitempty"`
	BOMID        string  `json:"bom_id,omitempty"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
	Groups       []Group `json:"groups,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Labels under which uploads are stored.
var uploadLabels = []string{"products", "accessories"}

// Manager owns the session directories and runs OCR.
type Manager struct {
	// UploadRoot holds raw uploads; defaults to manual_uploads.
	UploadRoot string
	// ResultRoot holds OCR artifacts; defaults to manual_ocr_results.
	ResultRoot string
	Bus        *progress.Bus
	// Vision performs per-page OCR and prompt-reverse.
	Vision ai.Client
	// OCRParallel caps concurrent page OCR; 0 means 2.
	OCRParallel int
}

func (m *Manager) uploadRoot() string {
	if m.UploadRoot != "" {
		return m.UploadRoot
	}
	return "manual_uploads"
}

func (m *Manager) resultRoot() string {
	if m.ResultRoot != "" {
		return m.ResultRoot
	}
	return "manual_ocr_results"
}

func (m *Manager) uploadDir(id string) string {
	return filepath.Join(m.uploadRoot(), id)
}

func (m *Manager) resultDir(id string) string {
	return filepath.Join(m.resultRoot(), id)
}

// InitParams identifies the product a session belongs to.
type InitParams struct {
	ProductName  string `json:"product_name" validate:"required"`
	BOMCode      string `json:"bom_code" validate:"required"`
	BOMType      string `json:"bom_type"`
	MaterialCode string `json:"material_code"`
	BOMID        string `json:"bom_id"`
}

// SessionID derives the deterministic id for a product and BOM pair.
func SessionID(productName, bomCode string) string {
	return util.SanitizeName(productName) + "_" + util.SanitizeName(bomCode)
}

// Init creates the session directories and record. The id is deterministic
// from product and BOM; if a directory with that id already exists, a
// timestamped fallback id keeps the runs apart.
func (m *Manager) Init(params InitParams) (*Record, error) {
	if params.ProductName == "" || params.BOMCode == "" {
		return nil, fmt.Errorf("session: product name and bom code required")
	}

	id := SessionID(params.ProductName, params.BOMCode)
	if _, err := os.Stat(m.uploadDir(id)); err == nil {
		suffix, err := util.RandomToken(6)
		if err != nil {
			return nil, err
		}
		id = fmt.Sprintf("manual_%d_%s", time.Now().UnixMilli(), suffix)
	}

	for _, label := range uploadLabels {
		if err := os.MkdirAll(filepath.Join(m.uploadDir(id), label), 0o755); err != nil {
			return nil, fmt.Errorf("session: create upload dir: %w", err)
		}
	}

	record := &Record{
		ID:           id,
		ProductName:  params.ProductName,
		BOMCode:      params.BOMCode,
		BOMType:      params.BOMType,
		MaterialCode: params.MaterialCode,
		BOMID:        params.BOMID,
		Status:       progress.StatusPending,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := m.save(record); err != nil {
		return nil, err
	}
	return record, nil
}

// Upload is one incoming file.
type Upload struct {
	Filename string
	Data     []byte
}

// AppendUploads stores files under the session's labeled directories with
// secured filenames. Name collisions get a random suffix instead of
// overwriting.
func (m *Manager) AppendUploads(sessionID string, productFiles, accessoryFiles []Upload) error {
	if _, err := m.Get(sessionID); err != nil {
		return err
	}
	store := func(label string, files []Upload) error {
		for _, file := range files {
			name := util.SecureFilename(file.Filename)
			path := filepath.Join(m.uploadDir(sessionID), label, name)
			path, err := util.UniquePath(path)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, file.Data, 0o644); err != nil {
				return fmt.Errorf("session: store upload %s: %w", name, err)
			}
		}
		return nil
	}
	if err := store("products", productFiles); err != nil {
		return err
	}
	return store("accessories", accessoryFiles)
}

// Get loads a session record.
func (m *Manager) Get(sessionID string) (*Record, error) {
	raw, err := os.ReadFile(filepath.Join(m.uploadDir(sessionID), "session.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
		}
		return nil, err
	}
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("session: decode record: %w", err)
	}
	return &record, nil
}

func (m *Manager) save(record *Record) error {
	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(m.uploadDir(record.ID), "session.json")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("session: save record: %w", err)
	}
	return nil
}

// Delete removes a session's uploads, OCR artifacts and progress state.
func (m *Manager) Delete(sessionID string) error {
	if _, err := m.Get(sessionID); err != nil {
		return err
	}
	if err := os.RemoveAll(m.uploadDir(sessionID)); err != nil {
		return err
	}
	if err := os.RemoveAll(m.resultDir(sessionID)); err != nil {
		return err
	}
	if m.Bus != nil {
		m.Bus.Remove(sessionID)
	}
	return nil
}

// Clear removes every session under the upload root.
func (m *Manager) Clear() error {
	entries, err := os.ReadDir(m.uploadRoot())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := m.Delete(entry.Name()); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

// List returns every stored session record, newest first by created_at.
func (m *Manager) List() ([]*Record, error) {
	entries, err := os.ReadDir(m.uploadRoot())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []*Record
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		record, err := m.Get(entry.Name())
		if err != nil {
			continue
		}
		out = append(out, record)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt > out[i].CreatedAt {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}
