// Package cachestore implements the cache store (C4): the versioned,
// algorithm-tagged, declutter-aware on-disk format that records, per
// relative path, the size/modtime/chunk-list a file hashed to, and the
// layered loading rules that let a run overlay several cache files with
// primary-wins semantics.
package cachestore

import (
	"encoding/json"

	"github.com/dedupstore/dedupstore/internal/digest"
)

// schemaVersion is the document format version written by this
// implementation. Loading a document with a newer version fails with
// ErrUnsupportedVersion rather than risk silently misreading it.
const schemaVersion = 1

// Cache is an in-memory index of relative path to FileRecord, backed on
// disk by a nested path-segment tree. The in-memory representation is
// kept flat for O(1) lookups during a run; the tree shape only exists at
// the serialization boundary.
type Cache struct {
	algorithm      digest.Algorithm
	declutterLevel int
	entries        map[string]*FileRecord
}

// New returns an empty cache tagged with the given hashing algorithm and
// declutter level.
func New(algorithm digest.Algorithm, declutterLevel int) *Cache {
	return &Cache{
		algorithm:      algorithm,
		declutterLevel: declutterLevel,
		entries:        make(map[string]*FileRecord),
	}
}

// Algorithm returns the hashing algorithm this cache was built with.
func (c *Cache) Algorithm() digest.Algorithm {
	return c.algorithm
}

// DeclutterLevel returns the chunk-store fan-out depth this cache was
// built against.
func (c *Cache) DeclutterLevel() int {
	return c.declutterLevel
}

// Get returns the record for path, if any.
func (c *Cache) Get(path string) (*FileRecord, bool) {
	record, ok := c.entries[path]
	return record, ok
}

// Set records path's chunk list under record, overwriting any existing
// entry.
func (c *Cache) Set(path string, record *FileRecord) {
	c.entries[path] = record
}

// Delete removes path's entry, if any.
func (c *Cache) Delete(path string) {
	delete(c.entries, path)
}

// Paths returns every relative path currently recorded, in no
// particular order.
func (c *Cache) Paths() []string {
	paths := make([]string, 0, len(c.entries))
	for path := range c.entries {
		paths = append(paths, path)
	}
	return paths
}

// Len returns the number of recorded entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Clone returns a deep copy of the cache, safe to mutate independently
// of the original.
func (c *Cache) Clone() *Cache {
	clone := New(c.algorithm, c.declutterLevel)
	for path, record := range c.entries {
		clone.entries[path] = record.Clone()
	}
	return clone
}

// document is the on-disk envelope around the path tree.
type document struct {
	Version        int       `json:"v"`
	Algorithm      string    `json:"a"`
	DeclutterLevel *int      `json:"d,omitempty"`
	Tree           *treeNode `json:"t"`
}

// marshal serializes the cache to its on-disk document form.
func (c *Cache) marshal() ([]byte, error) {
	level := c.declutterLevel
	doc := document{
		Version:        schemaVersion,
		Algorithm:      c.algorithm.Tag(),
		DeclutterLevel: &level,
		Tree:           buildTree(c.entries),
	}
	return json.Marshal(doc)
}

// unmarshalCache parses a cache document, validating its version and
// algorithm tag.
func unmarshalCache(data []byte) (*Cache, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, ErrCorruptCache
	}
	if doc.Version > schemaVersion {
		return nil, ErrUnsupportedVersion
	}

	algorithm, err := digest.ParseTag(doc.Algorithm)
	if err != nil {
		return nil, ErrUnknownAlgorithm
	}

	declutterLevel := 0
	if doc.DeclutterLevel != nil {
		declutterLevel = *doc.DeclutterLevel
	}

	cache := New(algorithm, declutterLevel)
	if doc.Tree != nil {
		flattenTree(doc.Tree, "", cache.entries)
	}
	return cache, nil
}
