package pipeline

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/mitelab-cli/internal/dataset"
	"github.com/sirupsen/logrus"
)

// Loader reads and normalizes datasets, memoizing the result by file content
// for its own lifetime. It is not safe for concurrent use.
type Loader struct {
	opt    dataset.LoadOptions
	log    logrus.FieldLogger
	cache  map[string]*dataset.Dataset
	hits   int
	misses int
}

// NewLoader returns a Loader that parses files with opt.
func NewLoader(opt dataset.LoadOptions, log logrus.FieldLogger) *Loader {
	return &Loader{opt: opt, log: orDiscard(log), cache: make(map[string]*dataset.Dataset)}
}

// Load returns the dataset for path, re-parsing only when the content or the
// file kind differs from a previous call.
func (l *Loader) Load(path string) (*dataset.Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &dataset.IngestionError{Path: path, Err: err}
	}
	sum := sha256.Sum256(b)
	name := filepath.Base(path)
	key := strings.ToLower(filepath.Ext(name)) + ":" + hex.EncodeToString(sum[:])
	if ds, ok := l.cache[key]; ok {
		l.hits++
		l.log.WithFields(logrus.Fields{"file": name, "sha256": key[len(key)-12:]}).Debug("dataset cache hit")
		return ds, nil
	}
	l.misses++
	ds, err := dataset.Parse(name, bytes.NewReader(b), l.opt)
	if err != nil {
		return nil, err
	}
	l.cache[key] = ds
	l.log.WithFields(logrus.Fields{
		"file":    name,
		"rows":    ds.Len(),
		"columns": len(ds.Columns()),
	}).Debug("dataset loaded")
	return ds, nil
}

// Stats reports cache hits and misses so far.
func (l *Loader) Stats() (hits, misses int) { return l.hits, l.misses }

// Digest returns the hex SHA-256 of a file's content, the identity Load caches on.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &dataset.IngestionError{Path: path, Err: err}
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", &dataset.IngestionError{Path: path, Err: err}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func orDiscard(log logrus.FieldLogger) logrus.FieldLogger {
	if log != nil {
		return log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
