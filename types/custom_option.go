// custom_option.go defines DictionaryItems: options passed to libav when a
// hardware device context is created.

package types

import (
	"fmt"
	"strings"
)

type DictionaryItem struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

type DictionaryItems []DictionaryItem

// Deduplicate keeps only the last value of every key, in the order of the
// last occurrences.
func (s DictionaryItems) Deduplicate() DictionaryItems {
	last := map[string]int{}
	for idx, item := range s {
		last[item.Key] = idx
	}
	result := make(DictionaryItems, 0, len(last))
	for idx, item := range s {
		if last[item.Key] != idx {
			continue
		}
		result = append(result, item)
	}
	return result
}

func (s DictionaryItems) String() string {
	var parts []string
	for _, item := range s {
		parts = append(parts, item.Key+"="+item.Value)
	}
	return strings.Join(parts, ",")
}

// Set implements pflag.Value; the value is "key=value".
func (s *DictionaryItems) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected 'key=value', got '%s'", v)
	}
	*s = append(*s, DictionaryItem{Key: key, Value: value})
	return nil
}

// Type implements pflag.Value.
func (s *DictionaryItems) Type() string {
	return "key=value"
}
