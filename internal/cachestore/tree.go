package cachestore

import (
	"encoding/json"
	"strings"
)

// treeNode is a node of the on-disk path tree: either a leaf FileRecord
// or a mapping from path segment to child node. Storing paths this way
// (rather than as a flat map keyed by the full relative path) lets
// sibling files under a deep, heavily shared directory prefix avoid
// repeating that prefix in every key.
type treeNode struct {
	leaf     *FileRecord
	children map[string]*treeNode
}

// MarshalJSON implements json.Marshaler. A leaf node serializes as its
// FileRecord's fields directly; an interior node serializes as a plain
// object mapping path segment to child node.
func (n *treeNode) MarshalJSON() ([]byte, error) {
	if n.leaf != nil {
		return json.Marshal(n.leaf)
	}
	if n.children == nil {
		return json.Marshal(map[string]*treeNode{})
	}
	return json.Marshal(n.children)
}

// UnmarshalJSON implements json.Unmarshaler. It distinguishes a leaf from
// an interior node by checking for the "s" and "m" fields that every
// leaf FileRecord carries; any path segment that happens to be named "s"
// or "m" would only be ambiguous if its own object also had both those
// keys, which is not a pattern this format produces.
func (n *treeNode) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	if _, hasSize := probe["s"]; hasSize {
		if _, hasModTime := probe["m"]; hasModTime {
			var record FileRecord
			if err := json.Unmarshal(data, &record); err != nil {
				return err
			}
			n.leaf = &record
			return nil
		}
	}

	children := make(map[string]*treeNode, len(probe))
	for segment, raw := range probe {
		child := &treeNode{}
		if err := json.Unmarshal(raw, child); err != nil {
			return err
		}
		children[segment] = child
	}
	n.children = children
	return nil
}

// buildTree converts a flat map of slash-joined relative paths to
// records into the nested path-segment tree used on disk.
func buildTree(entries map[string]*FileRecord) *treeNode {
	root := &treeNode{children: map[string]*treeNode{}}
	for path, record := range entries {
		segments := strings.Split(path, "/")
		node := root
		for i, segment := range segments {
			if i == len(segments)-1 {
				node.children[segment] = &treeNode{leaf: record}
				break
			}
			child, ok := node.children[segment]
			if !ok || child.leaf != nil {
				child = &treeNode{children: map[string]*treeNode{}}
				node.children[segment] = child
			}
			node = child
		}
	}
	return root
}

// flattenTree converts the nested path-segment tree back into a flat map
// of slash-joined relative paths to records.
func flattenTree(node *treeNode, prefix string, out map[string]*FileRecord) {
	if node == nil {
		return
	}
	if node.leaf != nil {
		out[prefix] = node.leaf
		return
	}
	for segment, child := range node.children {
		path := segment
		if prefix != "" {
			path = prefix + "/" + segment
		}
		flattenTree(child, path, out)
	}
}
