package builder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/creamcroissant/boxbuild/internal/protocol"
)

// MergeJSON decodes override as a JSON object and merges it into base.
// Nested objects merge key by key; any other value replaces the base value.
func MergeJSON(base map[string]any, override string) error {
	if strings.TrimSpace(override) == "" {
		return nil
	}
	patch, err := protocol.DecodeObject(override)
	if err != nil {
		return err
	}
	mergeMaps(base, patch)
	return nil
}

func mergeMaps(base, override map[string]any) {
	for key, value := range override {
		patch, isMap := value.(map[string]any)
		current, baseIsMap := base[key].(map[string]any)
		if isMap && baseIsMap {
			mergeMaps(current, patch)
			continue
		}
		base[key] = value
	}
}

// render encodes the document with its top-level keys in documentKeys order,
// applying override on the way. Nested objects come out with sorted keys.
func render(doc *Document, override string) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	tree := make(map[string]any)
	if err := decoder.Decode(&tree); err != nil {
		return "", fmt.Errorf("decode document: %w", err)
	}
	if err := MergeJSON(tree, override); err != nil {
		return "", fmt.Errorf("custom config: %w", err)
	}

	keys := make([]string, 0, len(tree))
	var extra []string
	for _, key := range documentKeys {
		if _, ok := tree[key]; ok {
			keys = append(keys, key)
		}
	}
	for key := range tree {
		if !slices.Contains(documentKeys, key) {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	var buf bytes.Buffer
	buf.WriteString("{")
	for i, key := range keys {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		name, err := encodeValue(key, "  ")
		if err != nil {
			return "", err
		}
		buf.Write(name)
		buf.WriteString(": ")
		value, err := encodeValue(tree[key], "  ")
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", key, err)
		}
		buf.Write(value)
	}
	if len(keys) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.String(), nil
}

func encodeValue(value any, prefix string) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent(prefix, "  ")
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
