// Package deckstore persists deck definitions in a JSON file. It is the
// data-owning collaborator the study engine consumes snapshots from; the
// session core itself never touches disk.
package deckstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quizdeck/studysession/internal/deck"
)

// ErrDeckNotFound is returned when a deck id is not in the store.
var ErrDeckNotFound = errors.New("deck not found")

// deckFile is the on-disk layout.
type deckFile struct {
	Decks       map[string]deck.Deck `json:"decks"`
	LastUpdated time.Time            `json:"last_updated"`
}

// Store is the storage interface for decks.
type Store interface {
	GetDeck(id string) (deck.Deck, error)
	ListDecks() ([]deck.Deck, error)
	AddDeck(d deck.Deck) (deck.Deck, error)
	DeleteDeck(id string) error

	Load() error
	Save() error
}

// FileStore implements Store using a JSON file for persistence.
type FileStore struct {
	filePath string
	file     deckFile
	mu       sync.RWMutex
}

// NewFileStore creates a FileStore over filePath. Call Load before use.
func NewFileStore(filePath string) *FileStore {
	return &FileStore{
		filePath: filePath,
		file: deckFile{
			Decks: make(map[string]deck.Deck),
		},
	}
}

// GetDeck retrieves a deck by id.
func (fs *FileStore) GetDeck(id string) (deck.Deck, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	d, exists := fs.file.Decks[id]
	if !exists {
		return deck.Deck{}, ErrDeckNotFound
	}
	return d, nil
}

// ListDecks returns all decks, ordered by name for stable output.
func (fs *FileStore) ListDecks() ([]deck.Deck, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	result := make([]deck.Deck, 0, len(fs.file.Decks))
	for _, d := range fs.file.Decks {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// AddDeck inserts a deck, assigning uuids to the deck and any cards that
// arrived without ids. The stored deck is returned.
func (fs *FileStore) AddDeck(d deck.Deck) (deck.Deck, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	for i := range d.Cards {
		if d.Cards[i].ID == "" {
			d.Cards[i].ID = uuid.New().String()
		}
	}

	fs.file.Decks[d.ID] = d
	fs.file.LastUpdated = time.Now()
	return d, nil
}

// DeleteDeck removes a deck by id.
func (fs *FileStore) DeleteDeck(id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, exists := fs.file.Decks[id]; !exists {
		return ErrDeckNotFound
	}
	delete(fs.file.Decks, id)
	fs.file.LastUpdated = time.Now()
	return nil
}

// Load reads the deck file. A missing or empty file initializes an empty
// store rather than failing.
func (fs *FileStore) Load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.filePath)
	if os.IsNotExist(err) {
		fs.file = deckFile{Decks: make(map[string]deck.Deck)}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read deck file: %w", err)
	}
	if len(data) == 0 {
		fs.file = deckFile{Decks: make(map[string]deck.Deck)}
		return nil
	}

	var file deckFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal deck file: %w", err)
	}
	if file.Decks == nil {
		file.Decks = make(map[string]deck.Deck)
	}
	fs.file = file
	return nil
}

// Save writes the deck file atomically via a temp file and rename.
func (fs *FileStore) Save() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.file.LastUpdated = time.Now()
	data, err := json.MarshalIndent(fs.file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal deck file: %w", err)
	}

	dir := filepath.Dir(fs.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile := fs.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, fs.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
