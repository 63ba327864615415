package flatten

import (
	"errors"
	"reflect"
	"testing"
)

func TestFlatten(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input map[string]any
		want  map[string]any
	}{
		{
			name:  "Empty",
			input: map[string]any{},
			want:  map[string]any{},
		},
		{
			name:  "NilInput",
			input: nil,
			want:  map[string]any{},
		},
		{
			name: "SingleLevelNesting",
			input: map[string]any{
				"a": map[string]any{"b": "1", "c": "2"},
				"d": "3",
			},
			want: map[string]any{"a.b": "1", "a.c": "2", "d": "3"},
		},
		{
			name: "BlankParentKey",
			input: map[string]any{
				"": map[string]any{"x": "1"},
			},
			want: map[string]any{"x": "1"},
		},
		{
			name: "ThreeLevels",
			input: map[string]any{
				"a": map[string]any{"b": map[string]any{"c": "v"}},
			},
			want: map[string]any{"a.b.c": "v"},
		},
		{
			name: "BlankChildKeyCollapsesOntoParent",
			input: map[string]any{
				"server": map[string]any{" ": "localhost", "port": 8080},
			},
			want: map[string]any{"server": "localhost", "server.port": 8080},
		},
		{
			name: "NestedKeysAreTrimmed",
			input: map[string]any{
				"db": map[string]any{" host ": "pg"},
			},
			want: map[string]any{"db.host": "pg"},
		},
		{
			name: "EmptyNestedMappingContributesNothing",
			input: map[string]any{
				"a": map[string]any{},
				"b": true,
			},
			want: map[string]any{"b": true},
		},
		{
			name: "MixedLeafTypes",
			input: map[string]any{
				"app": map[string]any{
					"name":    "svc",
					"debug":   false,
					"ratio":   0.5,
					"payload": []byte("raw"),
					"tags":    []any{"a", "b"},
					"none":    nil,
				},
			},
			want: map[string]any{
				"app.name":    "svc",
				"app.debug":   false,
				"app.ratio":   0.5,
				"app.payload": []byte("raw"),
				"app.tags":    []any{"a", "b"},
				"app.none":    nil,
			},
		},
		{
			name: "NonStringKeyedMaps",
			input: map[string]any{
				"yaml": map[any]any{"level": map[any]any{1: "one", "two": 2}},
			},
			want: map[string]any{"yaml.level.1": "one", "yaml.level.two": 2},
		},
		{
			name: "TypedMaps",
			input: map[string]any{
				"labels": map[string]string{"env": "prod"},
			},
			want: map[string]any{"labels.env": "prod"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Flatten(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("unexpected result: got %v want %v", got, tc.want)
			}
		})
	}
}

func TestFlatten_IdentityOnFlatInput(t *testing.T) {
	t.Parallel()

	input := map[string]any{"a": "1", " b ": 2, "": "blank", "c.d": true}
	got, err := Flatten(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, input) {
		t.Fatalf("expected identity, got %v", got)
	}
}

func TestFlatten_Idempotent(t *testing.T) {
	t.Parallel()

	input := map[string]any{
		"a": map[string]any{"b": map[string]any{"c": "v"}, "d": 1},
		"e": "x",
	}
	once, err := Flatten(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := Flatten(once)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("expected idempotent result, got %v then %v", once, twice)
	}
}

func TestFlatten_EveryLeafReachable(t *testing.T) {
	t.Parallel()

	input := map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": 1, "d": 2},
			"e": 3,
		},
		"f": map[string]any{"g": map[string]any{"h": map[string]any{"i": 4}}},
	}
	got, err := Flatten(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for path, want := range map[string]int{"a.b.c": 1, "a.b.d": 2, "a.e": 3, "f.g.h.i": 4} {
		if got[path] != want {
			t.Fatalf("expected %s=%d, got %v", path, want, got[path])
		}
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 leaves, got %d: %v", len(got), got)
	}
}

func TestFlatten_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	inner := map[string]any{"b": "1"}
	input := map[string]any{"a": inner}
	if _, err := Flatten(input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(input) != 1 || len(inner) != 1 || input["a"].(map[string]any)["b"] != "1" {
		t.Fatalf("input was mutated: %v", input)
	}
}

func TestFlatten_CollisionLastWriteWins(t *testing.T) {
	t.Parallel()

	// "a" sorts before "a.b", so the literal dotted key is written last.
	input := map[string]any{
		"a":   map[string]any{"b": "nested"},
		"a.b": "literal",
	}
	for i := 0; i < 20; i++ {
		got, err := Flatten(input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got["a.b"] != "literal" {
			t.Fatalf("expected last write to win, got %v", got["a.b"])
		}
	}
}

func TestFlatten_SelfReferenceRejected(t *testing.T) {
	t.Parallel()

	cyclic := map[string]any{"name": "root"}
	cyclic["self"] = cyclic

	if _, err := Flatten(cyclic); !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestFlatten_IndirectCycleRejected(t *testing.T) {
	t.Parallel()

	a := map[string]any{}
	b := map[string]any{"back": a}
	a["forward"] = map[string]any{"b": b}

	if _, err := Flatten(map[string]any{"root": a}); !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestFlatten_SharedSubtreeIsNotACycle(t *testing.T) {
	t.Parallel()

	shared := map[string]any{"x": 1}
	got, err := Flatten(map[string]any{"left": shared, "right": shared})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{"left.x": 1, "right.x": 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFlatten_DeepNestingDoesNotOverflow(t *testing.T) {
	t.Parallel()

	const depth = 10_000
	root := map[string]any{}
	current := root
	for i := 0; i < depth; i++ {
		next := map[string]any{}
		current["n"] = next
		current = next
	}
	current["leaf"] = "v"

	got, err := Flatten(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected a single leaf, got %d", len(got))
	}
}

func TestNew_Options(t *testing.T) {
	t.Parallel()

	input := map[string]any{"a": map[string]any{"b": map[string]any{"c": "v"}}}

	t.Run("separator", func(t *testing.T) {
		got, err := New(WithSeparator("/")).Flatten(input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got["a/b/c"] != "v" {
			t.Fatalf("expected custom separator, got %v", got)
		}
	})

	t.Run("max depth", func(t *testing.T) {
		if _, err := New(WithMaxDepth(1)).Flatten(input); !errors.Is(err, ErrDepthExceeded) {
			t.Fatalf("expected ErrDepthExceeded, got %v", err)
		}
		if _, err := New(WithMaxDepth(2)).Flatten(input); err != nil {
			t.Fatalf("unexpected error at exact depth: %v", err)
		}
	})
}

func TestUnflatten(t *testing.T) {
	t.Parallel()

	got := Unflatten(map[string]any{"a.b": "1", "a.c": "2", "d": "3"}, ".")
	want := map[string]any{
		"a": map[string]any{"b": "1", "c": "2"},
		"d": "3",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	back, err := Flatten(got)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(back, map[string]any{"a.b": "1", "a.c": "2", "d": "3"}) {
		t.Fatalf("round trip failed: %v", back)
	}

	if empty := Unflatten(nil, ""); len(empty) != 0 {
		t.Fatalf("expected empty tree, got %v", empty)
	}
}

func TestUnflattenLeafSharingPrefix(t *testing.T) {
	t.Parallel()

	flat := map[string]any{"server": "main", "server.port": "80", "server.port.tls": "on", "other": "x"}
	want := map[string]any{
		"server": map[string]any{
			"":     "main",
			"port": map[string]any{"": "80", "tls": "on"},
		},
		"other": "x",
	}

	for i := 0; i < 50; i++ {
		got := Unflatten(flat, ".")
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("run %d: expected %v, got %v", i, want, got)
		}

		back, err := Flatten(got)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(back, flat) {
			t.Fatalf("run %d: round trip lost leaves: %v", i, back)
		}
	}
}

func BenchmarkFlattenWide(b *testing.B) {
	input := make(map[string]any, 100)
	for i := 0; i < 100; i++ {
		input[string(rune('a'+i%26))+string(rune('0'+i/26))] = map[string]any{"x": i, "y": map[string]any{"z": i}}
	}
	f := New()
	for i := 0; i < b.N; i++ {
		if _, err := f.Flatten(input); err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
	}
}
