package config

import "encoding/json"

// MergeJSON deep-merges override onto base. Exported so other packages
// (the companion client's per-turn settings block) can reuse the same
// merge semantics as the configuration store.
func MergeJSON(base, override map[string]any) map[string]any {
	return deepMergeJSON(base, override)
}

// deepMergeJSON recursively merges override onto base (maps merge
// key-by-key; everything else — scalars, slices — is override-wins).
// This realizes the round-trip/defaults-shape invariant in spec.md §8.3:
// any valid document merged with defaults keeps every default key typed
// identically to the defaults' value at that path.
func deepMergeJSON(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, overrideVal := range override {
		baseVal, exists := out[k]
		if !exists {
			out[k] = overrideVal
			continue
		}
		baseMap, baseIsMap := baseVal.(map[string]any)
		overrideMap, overrideIsMap := overrideVal.(map[string]any)
		if baseIsMap && overrideIsMap {
			out[k] = deepMergeJSON(baseMap, overrideMap)
			continue
		}
		out[k] = overrideVal
	}
	return out
}

// mergeOverDefaults deep-merges raw (the on-disk document, as generic
// JSON) over defaults, then decodes the result back into a Document.
func mergeOverDefaults(defaults *Document, raw []byte) (*Document, error) {
	defaultsJSON, err := json.Marshal(defaults)
	if err != nil {
		return nil, err
	}
	var baseMap map[string]any
	if err := json.Unmarshal(defaultsJSON, &baseMap); err != nil {
		return nil, err
	}

	var overrideMap map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &overrideMap); err != nil {
			return nil, err
		}
	}

	merged := deepMergeJSON(baseMap, overrideMap)
	mergedJSON, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	if err := json.Unmarshal(mergedJSON, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
