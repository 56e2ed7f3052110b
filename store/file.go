package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"finzora/api/logger"

	"go.uber.org/zap"
)

type fileData struct {
	Users map[string]map[string][]Document `json:"users"`
}

// FileBackend keeps every collection of every user inside one JSON object on
// disk. Each call reads the whole file and each mutating call rewrites it.
// The mutex only serializes writers inside this process.
type FileBackend struct {
	path string
	mu   sync.Mutex
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (f *FileBackend) Name() string { return "file" }

func (f *FileBackend) Path() string { return f.path }

func (f *FileBackend) load() (*fileData, error) {
	data := &fileData{Users: map[string]map[string][]Document{}}
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading local store: %w", err)
	}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("error parsing local store: %w", err)
	}
	if data.Users == nil {
		data.Users = map[string]map[string][]Document{}
	}
	return data, nil
}

func (f *FileBackend) save(data *fileData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding local store: %w", err)
	}
	if err := os.WriteFile(f.path, raw, 0o644); err != nil {
		return fmt.Errorf("error writing local store: %w", err)
	}
	return nil
}

func (d *fileData) collection(userID, collection string) []Document {
	user, ok := d.Users[userID]
	if !ok {
		return nil
	}
	return user[collection]
}

func (d *fileData) setCollection(userID, collection string, docs []Document) {
	user, ok := d.Users[userID]
	if !ok {
		user = map[string][]Document{}
		d.Users[userID] = user
	}
	user[collection] = docs
}

// mutate runs fn against the loaded file and persists the result when fn
// reports a change.
func (f *FileBackend) mutate(fn func(*fileData) (bool, error)) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return false, err
	}
	changed, err := fn(data)
	if err != nil || !changed {
		return changed, err
	}
	if err := f.save(data); err != nil {
		logger.Get().Error("failed to persist local store",
			zap.String("path", f.path),
			zap.Error(err))
		return false, err
	}
	return true, nil
}

func (f *FileBackend) Insert(_ context.Context, userID, collection string, doc Document) error {
	_, err := f.mutate(func(d *fileData) (bool, error) {
		docs := d.collection(userID, collection)
		// newest first, matching the order lists are served in
		d.setCollection(userID, collection, append([]Document{doc}, docs...))
		return true, nil
	})
	return err
}

func (f *FileBackend) Find(_ context.Context, userID, collection string, q Query) ([]Document, error) {
	f.mu.Lock()
	data, err := f.load()
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var out []Document
	for _, doc := range data.collection(userID, collection) {
		if Matches(doc, q.Filter) {
			out = append(out, doc)
		}
	}
	if q.SortBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			return fmt.Sprint(out[i][q.SortBy]) > fmt.Sprint(out[j][q.SortBy])
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *FileBackend) Get(_ context.Context, userID, collection, id string) (Document, error) {
	f.mu.Lock()
	data, err := f.load()
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	for _, doc := range data.collection(userID, collection) {
		if doc.ID() == id {
			return doc, nil
		}
	}
	return nil, nil
}

func (f *FileBackend) Update(_ context.Context, userID, collection, id string, fields Document) (bool, error) {
	return f.mutate(func(d *fileData) (bool, error) {
		for _, doc := range d.collection(userID, collection) {
			if doc.ID() == id {
				for k, v := range fields {
					doc[k] = v
				}
				return true, nil
			}
		}
		return false, nil
	})
}

func (f *FileBackend) Upsert(_ context.Context, userID, collection, id string, doc Document) error {
	doc["id"] = id
	_, err := f.mutate(func(d *fileData) (bool, error) {
		docs := d.collection(userID, collection)
		for i, existing := range docs {
			if existing.ID() == id {
				docs[i] = doc
				return true, nil
			}
		}
		d.setCollection(userID, collection, append([]Document{doc}, docs...))
		return true, nil
	})
	return err
}

func (f *FileBackend) Delete(_ context.Context, userID, collection, id string) (bool, error) {
	return f.mutate(func(d *fileData) (bool, error) {
		docs := d.collection(userID, collection)
		for i, doc := range docs {
			if doc.ID() == id {
				d.setCollection(userID, collection, append(docs[:i:i], docs[i+1:]...))
				return true, nil
			}
		}
		return false, nil
	})
}

func (f *FileBackend) Users(_ context.Context, collection string) ([]string, error) {
	f.mu.Lock()
	data, err := f.load()
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var users []string
	for userID, colls := range data.Users {
		if len(colls[collection]) > 0 {
			users = append(users, userID)
		}
	}
	sort.Strings(users)
	return users, nil
}

func (f *FileBackend) Close(context.Context) error { return nil }
