package session

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// Options is an insertion-ordered set of Kconfig assignments. A later Set of
// an existing key replaces its value and keeps its original position.
type Options struct {
	keys   []string
	values map[string]string
}

// NewOptions returns an empty option set.
func NewOptions() *Options {
	return &Options{values: make(map[string]string)}
}

// Set assigns a scalar value. Booleans render as y/n.
func (o *Options) Set(key string, value any) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = formatValue(value)
}

// Get returns the rendered value for key.
func (o *Options) Get(key string) (string, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Len is the number of distinct keys.
func (o *Options) Len() int { return len(o.keys) }

// Keys returns keys in first-insertion order.
func (o *Options) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// All iterates key/value pairs in first-insertion order.
func (o *Options) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range o.keys {
			if !yield(k, o.values[k]) {
				return
			}
		}
	}
}

// Render produces prj.conf content, one key=value per line.
func (o *Options) Render() string {
	var b strings.Builder
	for k, v := range o.All() {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
		b.WriteByte('\n')
	}
	return b.String()
}

// Quote renders a Kconfig string literal.
func Quote(s string) string { return strconv.Quote(s) }

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		if x {
			return "y"
		}
		return "n"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
