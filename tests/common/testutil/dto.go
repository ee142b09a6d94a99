//go:build unit || e2e

package testutil

import (
	"encoding/json"
	"testing"
)

// DtoMap renders a request DTO as the map a JSON client would send, with
// optional mutations applied on top (see Field).
func DtoMap(t *testing.T, v any, muts ...func(map[string]any)) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("DtoMap: marshal failed: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("DtoMap: unmarshal failed: %v", err)
	}
	for _, f := range muts {
		f(m)
	}
	return m
}
