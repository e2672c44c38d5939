package cachestore

import "errors"

// ErrCorruptCache indicates that a cache file's contents could not be
// parsed as a valid document.
var ErrCorruptCache = errors.New("cache file is corrupt or unparseable")

// ErrUnsupportedVersion indicates that a cache file declares a schema
// version newer than this implementation understands.
var ErrUnsupportedVersion = errors.New("cache file version is newer than supported")

// ErrAlgorithmMismatch indicates that a non-primary cache layer (or a
// primary layer's existing contents) declares a hashing algorithm that
// does not match the algorithm in use for the current run.
var ErrAlgorithmMismatch = errors.New("cache file declares a different hashing algorithm")

// ErrUnknownAlgorithm indicates that a cache file's algorithm tag is not
// one this implementation recognizes.
var ErrUnknownAlgorithm = errors.New("cache file declares an unrecognized hashing algorithm")
