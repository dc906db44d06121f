package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/filevault/filevault/internal/models"
)

const indexVersion = 1

// indexDocument is the on-disk form of the name map and keyring.
type indexDocument struct {
	Version int                           `msgpack:"version"`
	Order   []string                      `msgpack:"order"`
	Records map[string]*models.FileRecord `msgpack:"records"`
	Keys    map[string]models.KeyEntry    `msgpack:"keys"`
}

func loadIndex(path string) (*indexDocument, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &indexDocument{Version: indexVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	var doc indexDocument
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}
	if doc.Version != indexVersion {
		return nil, fmt.Errorf("unsupported index version %d", doc.Version)
	}
	return &doc, nil
}

// saveIndex writes doc next to path and renames it into place.
func saveIndex(path string, doc *indexDocument) error {
	data, err := msgpack.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing index: %w", err)
	}
	return nil
}

func (s *VaultStore) snapshotLocked() *indexDocument {
	doc := &indexDocument{
		Version: indexVersion,
		Order:   append([]string(nil), s.order...),
		Records: make(map[string]*models.FileRecord, len(s.records)),
		Keys:    make(map[string]models.KeyEntry, len(s.keys)),
	}
	for k, v := range s.records {
		rec := *v
		doc.Records[k] = &rec
	}
	for k, v := range s.keys {
		doc.Keys[k] = v
	}
	return doc
}

// restore rebuilds the in-memory maps. Names without a record are dropped.
func (s *VaultStore) restore(doc *indexDocument) {
	byName := make(map[string]string, len(doc.Records))
	for stored, rec := range doc.Records {
		if rec == nil {
			continue
		}
		byName[rec.Name] = stored
		s.records[stored] = rec
	}
	for stored, entry := range doc.Keys {
		s.keys[stored] = entry
	}
	for _, name := range doc.Order {
		stored, ok := byName[name]
		if !ok {
			continue
		}
		if _, dup := s.names[name]; dup {
			continue
		}
		s.names[name] = stored
		s.order = append(s.order, name)
	}
}
