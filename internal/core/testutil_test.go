package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/SujalTiwari1/dtrepo/internal/db"
)

func initTestDB(t *testing.T) {
	t.Helper()
	if err := db.Init(db.Config{Path: ":memory:"}); err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	for _, table := range []string{"print_jobs", "counters", "users", "settings"} {
		if _, err := db.GetDB().Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("failed to clear %s: %v", table, err)
		}
	}
}

// memStore is an in-memory blob store for tests. failAfter > 0 makes the
// n-th Put fail.
type memStore struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	puts      int
	failAfter int
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string][]byte)}
}

func (m *memStore) Put(_ context.Context, path string, r io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts++
	if m.failAfter > 0 && m.puts >= m.failAfter {
		return "", fmt.Errorf("simulated storage failure")
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", err
	}
	m.blobs[path] = buf.Bytes()
	return "/files/" + path, nil
}

func (m *memStore) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blobs[path]; !ok {
		return fmt.Errorf("blob not found: %s", path)
	}
	delete(m.blobs, path)
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

var (
	student = Actor{ID: "student-1", Email: "student@example.edu", Role: RoleStudent}
	teacher = Actor{ID: "teacher-1", Email: "teacher@example.edu", Role: RoleTeacher}
	staff   = Actor{ID: "staff-1", Email: "staff@example.edu", Role: RoleStaff}
	admin   = Actor{ID: "admin-1", Email: "admin@example.edu", Role: RoleAdmin}
)

func testUploads(names ...string) []FileUpload {
	files := make([]FileUpload, 0, len(names))
	for _, name := range names {
		files = append(files, FileUpload{Name: name, Content: bytes.NewReader([]byte("content of " + name))})
	}
	return files
}

func defaultPrefs() Preferences {
	return Preferences{Copies: 1, ColorMode: ColorBW, Sided: SidedSingle}
}
