// Package loader reads delimited files into tables and memoizes them by path.
package loader

import (
	"fmt"
	"os"
	"sync"

	"github.com/0x0BSoD/newsInsight/internal/table"
)

// ParseFunc turns the file at path into a table.
type ParseFunc func(path string) (*table.Table, error)

// Loader caches parsed tables by path for the lifetime of the value.
// Files are never re-read: a changed file is served stale until Forget is called.
type Loader struct {
	parse ParseFunc

	mu   sync.Mutex
	data map[string]*table.Table
}

func New() *Loader {
	return NewWithParser(ParseCSVFile)
}

func NewWithParser(parse ParseFunc) *Loader {
	return &Loader{
		parse: parse,
		data:  make(map[string]*table.Table),
	}
}

func (l *Loader) Load(path string) (*table.Table, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.data[path]; ok {
		return t, nil
	}

	t, err := l.parse(path)
	if err != nil {
		return nil, err
	}
	l.data[path] = t

	return t, nil
}

func (l *Loader) Cached(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.data[path]
	return ok
}

func (l *Loader) Forget(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.data, path)
}

func ParseCSVFile(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := table.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}
