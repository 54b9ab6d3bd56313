package refine

import (
	"errors"
	"testing"
)

func TestParseNumberedList(t *testing.T) {
	cases := []struct {
		name     string
		response string
		max      int
		want     []string
	}{
		{
			"numbered",
			"1. What is the revenue?\n2. What drove the growth?",
			5,
			[]string{"What is the revenue?", "What drove the growth?"},
		},
		{
			"paren numbering and bullets",
			"1) First\n- Second\n* Third",
			5,
			[]string{"First", "Second", "Third"},
		},
		{
			"prose header discarded",
			"Here are the sub-questions:\n1. Only this one",
			5,
			[]string{"Only this one"},
		},
		{
			"cap applies",
			"1. a\n2. b\n3. c\n4. d",
			2,
			[]string{"a", "b"},
		},
		{
			"no list markers",
			"I would simply search for the original question.",
			5,
			nil,
		},
		{
			"empty",
			"",
			5,
			nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseNumberedList(tc.response, tc.max)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d items, got %d: %v", len(tc.want), len(got), got)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("item %d: expected %q, got %q", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestTransformNone(t *testing.T) {
	tr := NewTransformer(&scriptedLLM{}, 3)
	forms, err := tr.Transform("original question", TransformNone)
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 1 || forms[0] != "original question" {
		t.Errorf("expected passthrough, got %v", forms)
	}
}

func TestTransformRewrite(t *testing.T) {
	tr := NewTransformer(&scriptedLLM{responses: []string{"  a more specific question  "}}, 3)
	forms, err := tr.Transform("vague question", TransformRewrite)
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 1 || forms[0] != "a more specific question" {
		t.Errorf("expected the trimmed rewrite, got %v", forms)
	}
}

func TestTransformRewriteEmptyFallsBack(t *testing.T) {
	tr := NewTransformer(&scriptedLLM{responses: []string{"   "}}, 3)
	forms, err := tr.Transform("original", TransformRewrite)
	if err != nil {
		t.Fatal(err)
	}
	if forms[0] != "original" {
		t.Errorf("empty rewrite should fall back to the original, got %v", forms)
	}
}

func TestTransformDecompose(t *testing.T) {
	tr := NewTransformer(&scriptedLLM{responses: []string{"1. sub one\n2. sub two"}}, 3)
	forms, err := tr.Transform("compound question", TransformDecompose)
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 2 || forms[0] != "sub one" || forms[1] != "sub two" {
		t.Errorf("unexpected decomposition: %v", forms)
	}
}

func TestTransformDecomposeFallback(t *testing.T) {
	tr := NewTransformer(&scriptedLLM{responses: []string{"no list here"}}, 3)
	forms, err := tr.Transform("compound question", TransformDecompose)
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 1 || forms[0] != "compound question" {
		t.Errorf("expected fallback to the original question, got %v", forms)
	}
}

func TestTransformAll(t *testing.T) {
	tr := NewTransformer(&scriptedLLM{responses: []string{
		"rewritten form",
		"broader form",
		"1. sub one\n2. sub two",
	}}, 3)

	forms, err := tr.Transform("original", TransformAll)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"original", "rewritten form", "broader form", "sub one", "sub two"}
	if len(forms) != len(want) {
		t.Fatalf("expected %d forms, got %d: %v", len(want), len(forms), forms)
	}
	for i := range want {
		if forms[i] != want[i] {
			t.Errorf("form %d: expected %q, got %q", i, want[i], forms[i])
		}
	}
}

func TestTransformAllDeduplicates(t *testing.T) {
	tr := NewTransformer(&scriptedLLM{responses: []string{
		"original",
		"original",
		"1. original",
	}}, 3)

	forms, err := tr.Transform("original", TransformAll)
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 1 {
		t.Errorf("duplicate forms should collapse, got %v", forms)
	}
}

func TestTransformUnknownMode(t *testing.T) {
	tr := NewTransformer(&scriptedLLM{}, 3)
	if _, err := tr.Transform("q", "summarize"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestTransformPropagatesError(t *testing.T) {
	wantErr := errors.New("generation failed")
	tr := NewTransformer(&scriptedLLM{err: wantErr}, 3)

	if _, err := tr.Transform("q", TransformRewrite); !errors.Is(err, wantErr) {
		t.Errorf("expected the port error to propagate, got %v", err)
	}
	if _, err := tr.Transform("q", TransformAll); !errors.Is(err, wantErr) {
		t.Errorf("expected the port error to propagate for all-mode, got %v", err)
	}
}
