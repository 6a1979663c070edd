package crf

import (
	"fmt"
	"sort"
)

// FeatureStrings flattens a structured attribute map into the feature
// strings the engine consumes. Callers assembling features from typed
// data (token text, shapes, flags) can use this instead of formatting
// keys by hand; the same conversion must then be applied at training
// and at inference time.
//
// Conversion rules:
//   - string value: "key=value"
//   - []string value: "key:item" for each item
//   - bool value: "key" if true, nothing if false
//   - other values: "key=<value>" via default formatting
//
// The result is sorted, so identical attribute maps always produce
// identical feature sets.
func FeatureStrings(attrs map[string]any) []string {
	features := make([]string, 0, len(attrs))
	for key, val := range attrs {
		switch v := val.(type) {
		case string:
			features = append(features, fmt.Sprintf("%s=%s", key, v))
		case []string:
			for _, item := range v {
				features = append(features, fmt.Sprintf("%s:%s", key, item))
			}
		case bool:
			if v {
				features = append(features, key)
			}
		default:
			features = append(features, fmt.Sprintf("%s=%v", key, v))
		}
	}
	sort.Strings(features)
	return features
}
