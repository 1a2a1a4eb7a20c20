package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

const maxReadableKey = 200

// GenerateKey derives a stable key from a namespace and parameters.
// Pairs are sorted by name and slices are sorted after stringifying, so
// logically equal parameter sets always share a key. Nil values are skipped.
func GenerateKey(namespace string, params map[string]interface{}) string {
	names := make([]string, 0, len(params))
	for k, v := range params {
		if isNil(v) {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+"="+stringify(params[k]))
	}
	body := strings.Join(parts, "|")

	if len(namespace)+1+len(body) > maxReadableKey {
		sum := sha256.Sum256([]byte(body))
		body = hex.EncodeToString(sum[:])
	}
	return namespace + ":" + body
}

func stringify(v interface{}) string {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Invalid:
		return ""
	case reflect.Slice, reflect.Array:
		items := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = stringify(rv.Index(i).Interface())
		}
		sort.Strings(items)
		return "[" + strings.Join(items, ",") + "]"
	default:
		return fmt.Sprint(rv.Interface())
	}
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
