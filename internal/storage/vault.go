package storage

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/filevault/filevault/internal/logging"
	"github.com/filevault/filevault/internal/metrics"
	"github.com/filevault/filevault/internal/models"
)

// Store defines the interface for encrypted file storage keyed by display name.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader) (*models.FileRecord, error)
	Replace(ctx context.Context, name string, r io.Reader) (*models.FileRecord, error)
	Open(ctx context.Context, name string) ([]byte, *models.FileRecord, error)
	Delete(ctx context.Context, name string) error
	Has(name string) bool
	List() []string
	Len() int
}

// VaultStore encrypts every file with its own key before handing it to a
// Backend. It owns the display name -> stored name map and the keyring.
type VaultStore struct {
	mu      sync.RWMutex
	backend Backend
	order   []string                      // display names, first-upload order
	names   map[string]string             // display name -> stored name
	records map[string]*models.FileRecord // stored name -> record
	keys    map[string]models.KeyEntry    // stored name -> key material

	indexPath string
	now       func() time.Time
}

// Option configures a VaultStore.
type Option func(*VaultStore)

// WithIndex persists the name map and keyring to path after every mutation.
func WithIndex(path string) Option {
	return func(s *VaultStore) { s.indexPath = path }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *VaultStore) { s.now = now }
}

// NewVaultStore creates a VaultStore on top of backend, loading the index
// when one is configured.
func NewVaultStore(backend Backend, opts ...Option) (*VaultStore, error) {
	s := &VaultStore{
		backend: backend,
		names:   make(map[string]string),
		records: make(map[string]*models.FileRecord),
		keys:    make(map[string]models.KeyEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.indexPath != "" {
		doc, err := loadIndex(s.indexPath)
		if err != nil {
			return nil, err
		}
		s.restore(doc)
	}

	metrics.SetStoredFiles(len(s.order))
	return s, nil
}

// storedName builds the server-side unique key for a display name.
func storedName(name string) string {
	id := uuid.New()
	return hex.EncodeToString(id[:]) + "_" + name
}

// blobKey escapes a stored name so it is safe as a single path segment.
func blobKey(stored string) string {
	return url.PathEscape(stored)
}

func (s *VaultStore) seal(data []byte) ([]byte, models.KeyEntry, error) {
	key, err := newKey()
	if err != nil {
		return nil, models.KeyEntry{}, err
	}
	ct, err := encrypt(data, key)
	if err != nil {
		return nil, models.KeyEntry{}, err
	}
	return ct, models.KeyEntry{Key: key, Hash: digest(data)}, nil
}

// Save encrypts r and stores it under name. An existing file with the same
// display name is replaced and its old blob removed. The store is unchanged
// when an error is returned.
func (s *VaultStore) Save(ctx context.Context, name string, r io.Reader) (*models.FileRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	ct, entry, err := s.seal(data)
	if err != nil {
		return nil, err
	}
	entry.Original = name

	stored := storedName(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.PutObject(ctx, blobKey(stored), bytes.NewReader(ct), int64(len(ct))); err != nil {
		return nil, fmt.Errorf("storing %s: %w", name, err)
	}

	now := s.now()
	rec := &models.FileRecord{
		Name:       name,
		StoredName: stored,
		Hash:       entry.Hash,
		Size:       int64(len(data)),
		UploadedAt: now,
		ModifiedAt: now,
	}

	previous, existed := s.names[name]
	undo := s.checkpointLocked(name)
	if existed {
		delete(s.records, previous)
		delete(s.keys, previous)
	} else {
		s.order = append(s.order, name)
	}
	s.names[name] = stored
	s.records[stored] = rec
	s.keys[stored] = entry

	if err := s.persistLocked(); err != nil {
		undo()
		delete(s.records, stored)
		delete(s.keys, stored)
		s.removeBlob(ctx, stored)
		return nil, err
	}

	if existed {
		s.removeBlob(ctx, previous)
	}
	metrics.SetStoredFiles(len(s.order))

	out := *rec
	return &out, nil
}

// Replace re-encrypts new content for an existing display name under a
// fresh key. The stored name does not change. The new key is persisted
// before the blob is overwritten, and rolled back if the write fails.
func (s *VaultStore) Replace(ctx context.Context, name string, r io.Reader) (*models.FileRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.names[name]
	if !ok {
		return nil, ErrNotFound
	}

	ct, entry, err := s.seal(data)
	if err != nil {
		return nil, err
	}
	entry.Original = name

	undo := s.checkpointLocked(name)
	rec := &models.FileRecord{Name: name, StoredName: stored, UploadedAt: s.now()}
	if old := s.records[stored]; old != nil {
		*rec = *old
	}
	rec.Hash = entry.Hash
	rec.Size = int64(len(data))
	rec.ModifiedAt = s.now()
	s.records[stored] = rec
	s.keys[stored] = entry

	if err := s.persistLocked(); err != nil {
		undo()
		return nil, err
	}

	if err := s.backend.PutObject(ctx, blobKey(stored), bytes.NewReader(ct), int64(len(ct))); err != nil {
		undo()
		if perr := s.persistLocked(); perr != nil {
			logging.Error("failed to restore index after write error",
				zap.String("stored_name", stored), zap.Error(perr))
		}
		return nil, fmt.Errorf("storing %s: %w", name, err)
	}

	out := *rec
	return &out, nil
}

// Open decrypts the file stored under name and verifies its hash.
func (s *VaultStore) Open(ctx context.Context, name string) ([]byte, *models.FileRecord, error) {
	s.mu.RLock()
	stored, ok := s.names[name]
	if !ok {
		s.mu.RUnlock()
		return nil, nil, ErrNotFound
	}
	entry, ok := s.keys[stored]
	if !ok {
		s.mu.RUnlock()
		return nil, nil, ErrKeyMissing
	}
	rec := models.FileRecord{Name: name, StoredName: stored}
	if r := s.records[stored]; r != nil {
		rec = *r
	}

	rc, err := s.backend.GetObject(ctx, blobKey(stored))
	if err != nil {
		s.mu.RUnlock()
		return nil, nil, err
	}
	ct, err := io.ReadAll(rc)
	rc.Close()
	s.mu.RUnlock()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", name, err)
	}

	plain, err := decrypt(ct, entry.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	if digest(plain) != entry.Hash {
		return nil, nil, ErrIntegrity
	}

	if entry.Original != "" {
		rec.Name = entry.Original
	}
	return plain, &rec, nil
}

// Delete removes the mapping and key for name, then its blob. Once the
// index no longer lists the file a failed blob removal is only logged.
func (s *VaultStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.names[name]
	if !ok {
		return ErrNotFound
	}

	undo := s.checkpointLocked(name)
	delete(s.names, name)
	delete(s.records, stored)
	delete(s.keys, stored)
	if i := slices.Index(s.order, name); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}

	if err := s.persistLocked(); err != nil {
		undo()
		return err
	}

	s.removeBlob(ctx, stored)
	metrics.SetStoredFiles(len(s.order))
	return nil
}

// List returns display names in first-upload order.
func (s *VaultStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// Has reports whether a file is stored under name.
func (s *VaultStore) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.names[name]
	return ok
}

// Len returns the number of stored display names.
func (s *VaultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *VaultStore) persistLocked() error {
	if s.indexPath == "" {
		return nil
	}
	return saveIndex(s.indexPath, s.snapshotLocked())
}

// checkpointLocked captures everything a mutation of name may touch and
// returns a func that puts it back.
func (s *VaultStore) checkpointLocked(name string) func() {
	order := slices.Clone(s.order)
	stored, hadName := s.names[name]
	rec, hadRec := s.records[stored]
	var saved models.FileRecord
	if rec != nil {
		saved = *rec
	}
	entry, hadKey := s.keys[stored]

	return func() {
		s.order = order
		if !hadName {
			delete(s.names, name)
			return
		}
		s.names[name] = stored
		if hadRec {
			if rec != nil {
				*rec = saved
			}
			s.records[stored] = rec
		} else {
			delete(s.records, stored)
		}
		if hadKey {
			s.keys[stored] = entry
		} else {
			delete(s.keys, stored)
		}
	}
}

func (s *VaultStore) removeBlob(ctx context.Context, stored string) {
	if err := s.backend.DeleteObject(ctx, blobKey(stored)); err != nil {
		logging.Warn("failed to remove blob",
			zap.String("stored_name", stored), zap.Error(err))
	}
}

// Close releases the blob backend.
func (s *VaultStore) Close() error {
	return s.backend.Close()
}
