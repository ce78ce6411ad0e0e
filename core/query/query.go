// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package query builds URL query strings for the rows API.

A Query maps parameter names to arbitrary values. A nil value means "not set" and the
parameter is left out of the encoded string, so

	query.Query{"a": 1, "b": nil}.Encode()

yields "a=1". Parameters are emitted in sorted key order, slices are joined with a comma.
*/
package query

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Query is a set of query parameters. Nil values are omitted.
type Query map[string]any

// Values converts the query into url.Values, dropping unset parameters.
func (q Query) Values() url.Values {
	values := url.Values{}
	for key, value := range q {
		s, ok := format(value)
		if !ok {
			continue
		}
		values.Add(key, s)
	}
	return values
}

// Encode returns the URL encoded query string without leading "?".
func (q Query) Encode() string {
	return q.Values().Encode()
}

// Keys returns the keys of all set parameters in sorted order
func (q Query) Keys() []string {
	var keys []string
	for key, value := range q {
		if _, ok := format(value); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// CacheKey returns the cache key for a named resource with this query.
// The key is name, a dash and the JSON representation of the set parameters,
// so queries which encode to the same URL share a key.
func (q Query) CacheKey(name string) string {
	set := make(map[string]any, len(q))
	for _, key := range q.Keys() {
		set[key] = q[key]
	}
	j, err := json.Marshal(set)
	if err != nil {
		// values that cannot be marshalled still produce a stable key
		j = []byte(q.Encode())
	}
	return name + "-" + string(j)
}

// Parse parses a raw query string. Repeated parameters keep their last value.
func Parse(raw string) (Query, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return nil, err
	}
	q := Query{}
	for key, v := range values {
		if len(v) > 0 {
			q[key] = v[len(v)-1]
		}
	}
	return q, nil
}

// ParsePairs builds a query from "key=value" strings
func ParsePairs(pairs []string) (Query, error) {
	q := Query{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter '%s', expected key=value", pair)
		}
		q[key] = value
	}
	return q, nil
}

// format converts a parameter value into its string form. It returns false
// for values that are not set.
func format(value any) (string, bool) {
	if value == nil {
		return "", false
	}
	switch v := value.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return "", false
		}
		return v.String(), true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "", false
		}
		return format(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "", false
		}
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			s, _ := format(rv.Index(i).Interface())
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), true
	case reflect.Map:
		if rv.IsNil() {
			return "", false
		}
		j, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value), true
		}
		return string(j), true
	}
	return fmt.Sprint(value), true
}
