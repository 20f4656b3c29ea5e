package audit

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Truncation limits for string values inside audit events. Encoded payloads
// (base64 audio and the like) are cut hard, prose is kept mostly intact.
const (
	truncateThreshold = 1000
	dataHead          = 100
	dataTail          = 100
	proseThreshold    = 5000
	proseHead         = 2000
	proseTail         = 500
)

// maxDepth bounds recursion so cyclic or pathologically nested values can
// never hang or overflow the logging path.
const maxDepth = 8

// Mapper lets a domain value choose its own loggable mapping.
type Mapper interface {
	AuditFields() map[string]any
}

// ContentHolder marks message-like values: they are logged as their type
// name plus sanitized content instead of their full internal representation.
type ContentHolder interface {
	AuditContent() any
}

// Fields sanitizes an event field map. Keys with nil values are dropped.
// It never panics: a field that cannot be serialized degrades to its
// fmt representation, because a logging failure must never abort the request.
func Fields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if v == nil {
			continue
		}
		out[k] = Sanitize(v)
	}
	return out
}

// Sanitize converts an arbitrary value into a bounded, JSON-serializable form.
func Sanitize(v any) (out any) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("<unserializable: %v>", r)
		}
	}()
	return sanitize(v, 0)
}

func sanitize(v any, depth int) any {
	if v == nil {
		return nil
	}
	if depth >= maxDepth {
		return fmt.Sprintf("%v", v)
	}

	switch typed := v.(type) {
	case Mapper:
		return sanitizeMap(typed.AuditFields(), depth+1)
	case ContentHolder:
		return map[string]any{
			"type":    fmt.Sprintf("%T", typed),
			"content": sanitize(typed.AuditContent(), depth+1),
		}
	case map[string]any:
		return sanitizeMap(typed, depth+1)
	case []any:
		items := make([]any, len(typed))
		for i, item := range typed {
			items[i] = sanitize(item, depth+1)
		}
		return items
	case string:
		return sanitizeString(typed)
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return typed
	case time.Time:
		return typed.UTC().Format(time.RFC3339Nano)
	case time.Duration:
		return typed.String()
	case error:
		return sanitizeString(typed.Error())
	case fmt.Stringer:
		return sanitizeString(typed.String())
	}

	// Maps and slices of concrete element types still recurse; everything
	// else falls back to its textual representation.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[fmt.Sprintf("%v", iter.Key().Interface())] = sanitize(iter.Value().Interface(), depth+1)
		}
		return m
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = sanitize(rv.Index(i).Interface(), depth+1)
		}
		return items
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		return sanitize(rv.Elem().Interface(), depth+1)
	}
	return fmt.Sprintf("%v", v)
}

func sanitizeMap(m map[string]any, depth int) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = sanitize(v, depth)
	}
	return out
}

// sanitizeString truncates oversized strings. No whitespace in the first 100
// characters means encoded/binary-like data, which keeps only a short head
// and tail; prose is passed through up to a much larger limit.
func sanitizeString(s string) string {
	runes := []rune(s)
	if len(runes) <= truncateThreshold {
		return s
	}

	head := runes
	if len(head) > dataHead {
		head = head[:dataHead]
	}
	if !strings.ContainsAny(string(head), " \t\r\n") {
		return fmt.Sprintf("%s...[TRUNCATED DATA %d chars]...%s",
			string(runes[:dataHead]), len(runes), string(runes[len(runes)-dataTail:]))
	}

	if len(runes) > proseThreshold {
		return fmt.Sprintf("%s...[TRUNCATED LONG TEXT %d chars]...%s",
			string(runes[:proseHead]), len(runes), string(runes[len(runes)-proseTail:]))
	}
	return s
}
