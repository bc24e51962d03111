package engine

import "testing"

func TestResolvePath_NestedKeys(t *testing.T) {
	payload := map[string]any{
		"order": map[string]any{
			"customer": map[string]any{"name": "Acme"},
			"number":   "WO-123",
		},
	}

	v, ok := ResolvePath(payload, "order.customer.name")
	if !ok || v != "Acme" {
		t.Fatalf("expected Acme, got %v (ok=%v)", v, ok)
	}

	v, ok = ResolvePath(payload, "order.number")
	if !ok || v != "WO-123" {
		t.Fatalf("expected WO-123, got %v (ok=%v)", v, ok)
	}
}

func TestResolvePath_MissingIntermediateKey(t *testing.T) {
	payload := map[string]any{"a": map[string]any{"b": 1.0}}

	if _, ok := ResolvePath(payload, "a.x.y"); ok {
		t.Fatal("expected absent for missing intermediate key")
	}
	if _, ok := ResolvePath(payload, "missing"); ok {
		t.Fatal("expected absent for missing top-level key")
	}
}

func TestResolvePath_WholePayload(t *testing.T) {
	payload := map[string]any{"event": "unit_scanned"}

	for _, path := range []string{"$", "", "$."} {
		v, ok := ResolvePath(payload, path)
		if !ok {
			t.Fatalf("path %q: expected whole payload", path)
		}
		m, isMap := v.(map[string]any)
		if !isMap || m["event"] != "unit_scanned" {
			t.Fatalf("path %q: expected whole payload, got %v", path, v)
		}
	}
}

func TestResolvePath_ArrayIndex(t *testing.T) {
	payload := map[string]any{
		"a": []any{map[string]any{}, map[string]any{}, map[string]any{"b": 5.0}},
	}

	v, ok := ResolvePath(payload, "$.a[2].b")
	if !ok || v != 5.0 {
		t.Fatalf("expected 5, got %v (ok=%v)", v, ok)
	}
}

func TestResolvePath_IndexOutOfRange(t *testing.T) {
	payload := map[string]any{"a": []any{map[string]any{}}}

	if _, ok := ResolvePath(payload, "$.a[2].b"); ok {
		t.Fatal("expected absent for out-of-range index")
	}
}

func TestResolvePath_IndexOnNonArray(t *testing.T) {
	payload := map[string]any{"a": map[string]any{"b": 1.0}}

	if _, ok := ResolvePath(payload, "a[0]"); ok {
		t.Fatal("expected absent when indexing a non-array")
	}
}

func TestResolvePath_NilMidPath(t *testing.T) {
	payload := map[string]any{"a": nil}

	if _, ok := ResolvePath(payload, "a.b"); ok {
		t.Fatal("expected absent when traversing through nil")
	}

	// A trailing nil is a present value, not absence.
	v, ok := ResolvePath(payload, "a")
	if !ok || v != nil {
		t.Fatalf("expected present nil, got %v (ok=%v)", v, ok)
	}
}

func TestResolvePath_LegacyDollarPrefix(t *testing.T) {
	payload := map[string]any{"event": "scan"}

	v, ok := ResolvePath(payload, "$.event")
	if !ok || v != "scan" {
		t.Fatalf("expected scan, got %v (ok=%v)", v, ok)
	}
	v, ok = ResolvePath(payload, "$event")
	if !ok || v != "scan" {
		t.Fatalf("expected scan for bare $ prefix, got %v (ok=%v)", v, ok)
	}
}

func TestResolvePath_MalformedIndex(t *testing.T) {
	payload := map[string]any{"a": []any{1.0}}

	if _, ok := ResolvePath(payload, "a[x]"); ok {
		t.Fatal("expected absent for non-numeric index")
	}
	if _, ok := ResolvePath(payload, "a[0"); ok {
		t.Fatal("expected absent for unterminated index")
	}
}
