// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package documents resolves citation identifiers to cached document text
// under a papers directory laid out as markdown/, abstracts/ and metadata/.
package documents

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/evidence-engine/internal/textnorm"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Resolver maps identifiers to cached documents. Results, including
// misses, are cached for the lifetime of the Resolver. It is safe for
// concurrent use.
type Resolver struct {
	dir         string
	conventions []Convention
	log         *zap.Logger

	mu    sync.Mutex
	cache map[string]*types.CachedDocument
	reads int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithConventions replaces the default naming conventions.
func WithConventions(c []Convention) Option {
	return func(r *Resolver) { r.conventions = c }
}

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// NewResolver returns a Resolver rooted at papersDir.
func NewResolver(papersDir string, opts ...Option) *Resolver {
	r := &Resolver{
		dir:         papersDir,
		conventions: DefaultConventions(),
		log:         zap.NewNop(),
		cache:       make(map[string]*types.CachedDocument),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns the cached document for identifier. When no convention
// finds a file the result has Kind missing and err is nil. An error means a
// file exists but could not be read or parsed; such failures are not
// cached.
func (r *Resolver) Resolve(identifier string) (*types.CachedDocument, error) {
	key := Normalize(identifier)

	r.mu.Lock()
	defer r.mu.Unlock()
	if doc, ok := r.cache[key]; ok {
		return doc, nil
	}

	doc, err := r.load(identifier, key)
	if err != nil {
		return nil, err
	}
	r.cache[key] = doc
	return doc, nil
}

// Reads returns the number of files read from disk so far.
func (r *Resolver) Reads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

func (r *Resolver) load(identifier, key string) (*types.CachedDocument, error) {
	_, asGiven := Classify(identifier)
	forms := []string{asGiven}
	if key != asGiven {
		forms = append(forms, key)
	}

	for _, c := range r.conventions {
		for _, form := range forms {
			rel := c.Path(form)
			if rel == "" {
				continue
			}
			path := filepath.Join(r.dir, rel)
			info, err := os.Stat(path)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", path, err)
			}
			if info.IsDir() {
				continue
			}
			doc, err := r.read(path, c)
			if err != nil {
				return nil, err
			}
			doc.Identifier = key
			r.log.Debug("document resolved",
				zap.String("identifier", key),
				zap.String("convention", c.Name),
				zap.String("kind", string(doc.Kind)),
				zap.String("path", path))
			return doc, nil
		}
	}

	r.log.Debug("no cached document", zap.String("identifier", key))
	return &types.CachedDocument{Identifier: key, Kind: types.DocumentMissing}, nil
}

func (r *Resolver) read(path string, c Convention) (*types.CachedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	r.reads++

	doc := &types.CachedDocument{Kind: c.Kind, Path: path}
	switch c.Format {
	case FormatMetadataYAML:
		var meta abstractMetadata
		if err := yaml.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("parsing metadata %s: %w", path, err)
		}
		doc.Title = strings.TrimSpace(meta.Title)
		doc.RawText = meta.text()
	default:
		title, body, err := splitFrontmatter(data)
		if err != nil {
			return nil, fmt.Errorf("parsing frontmatter %s: %w", path, err)
		}
		doc.Title = title
		doc.RawText = body
	}
	doc.NormalizedText = textnorm.Whitespace(doc.RawText)
	return doc, nil
}

// abstractMetadata is the structured abstract record written by the paper
// acquisition step.
type abstractMetadata struct {
	Title    string `yaml:"title"`
	Abstract string `yaml:"abstract"`
}

func (m abstractMetadata) text() string {
	title := strings.TrimSpace(m.Title)
	abstract := strings.TrimSpace(m.Abstract)
	switch {
	case title == "":
		return abstract
	case abstract == "":
		return title
	}
	if !strings.HasSuffix(title, ".") {
		title += "."
	}
	return title + "\n\n" + abstract
}

// splitFrontmatter removes a leading YAML frontmatter block and returns its
// title field with the remaining body.
func splitFrontmatter(data []byte) (title, body string, err error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		return "", string(data), nil
	}
	rest := data[bytes.IndexByte(data, '\n')+1:]
	end := frontmatterEnd(rest)
	if end < 0 {
		return "", string(data), nil
	}

	var fm struct {
		Title string `yaml:"title"`
	}
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return "", "", err
	}
	body = string(rest[end:])
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = ""
	}
	return strings.TrimSpace(fm.Title), body, nil
}

// frontmatterEnd returns the offset of the closing "---" line, or -1.
func frontmatterEnd(b []byte) int {
	off := 0
	for off <= len(b) {
		line := b[off:]
		nl := bytes.IndexByte(line, '\n')
		if nl >= 0 {
			line = line[:nl]
		}
		if string(bytes.TrimRight(line, "\r")) == "---" {
			return off
		}
		if nl < 0 {
			return -1
		}
		off += nl + 1
	}
	return -1
}
