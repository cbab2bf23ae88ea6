package config

import (
	"slices"
)

// ReplaceIfPresent returns a copy of child when it is set, else of parent.
// It is the combinator for fix and level.
func ReplaceIfPresent[T any](parent, child *T) *T {
	src := parent
	if child != nil {
		src = child
	}
	if src == nil {
		return nil
	}
	v := *src
	return &v
}

// Concat appends child patterns after parent ones. Order is kept because
// later patterns supersede earlier ones.
func Concat(parent, child []string) []string {
	return slices.Concat(parent, child)
}

// MergeOptions deep-merges option objects, outermost first. On a key
// collision the later value wins; nested objects merge key by key while
// lists and scalars replace the earlier value wholesale. The result shares
// no memory with the inputs.
func MergeOptions(list ...map[string]any) map[string]any {
	merged := make(map[string]any)
	for _, opts := range list {
		mergeInto(merged, opts)
	}
	return merged
}

func mergeInto(dst, src map[string]any) {
	for key, value := range src {
		child, childIsObject := value.(map[string]any)
		current, currentIsObject := dst[key].(map[string]any)
		if childIsObject && currentIsObject {
			mergeInto(current, child)
			continue
		}
		dst[key] = cloneValue(value)
	}
}

// CloneOptions deep-copies an option tree.
func CloneOptions(opts map[string]any) map[string]any {
	if opts == nil {
		return nil
	}
	return cloneValue(opts).(map[string]any)
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return slices.Clone(val)
	default:
		return val
	}
}

// MergeLinters merges two linter lists by identity. Entries keep the order
// in which their identity first appears; when an identity appears again its
// fields are combined with the earlier entry (fix and level replaced when
// set, options deep-merged). Duplicates inside a single list merge the same
// way, so the result never holds two entries for one linter.
func MergeLinters(parent, child []LinterConfig) []LinterConfig {
	merged := make([]LinterConfig, 0, len(parent)+len(child))
	index := make(map[string]int, len(parent)+len(child))

	for _, l := range slices.Concat(parent, child) {
		if i, ok := index[l.Linter]; ok {
			merged[i] = mergeLinter(merged[i], l)
			continue
		}
		index[l.Linter] = len(merged)
		merged = append(merged, l.Clone())
	}
	return merged
}

func mergeLinter(parent, child LinterConfig) LinterConfig {
	return LinterConfig{
		Linter:  parent.Linter,
		Fix:     ReplaceIfPresent(parent.Fix, child.Fix),
		Level:   ReplaceIfPresent(parent.Level, child.Level),
		Options: MergeOptions(parent.Options, child.Options),
	}
}
