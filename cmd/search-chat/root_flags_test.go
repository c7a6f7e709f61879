package main

import (
	"reflect"
	"testing"
)

func TestParseRootArgsLeavesSubcommandArgs(t *testing.T) {
	orig := []string{"ask", "-c", "model=x", "what is new?"}
	root, rest, err := parseRootArgs(orig)
	if err != nil {
		t.Fatalf("parseRootArgs returned error: %v", err)
	}
	if len(root.overrides) != 0 {
		t.Fatalf("expected no overrides, got %v", root.overrides)
	}
	if !reflect.DeepEqual(rest, orig) {
		t.Fatalf("expected rest to preserve args %v, got %v", orig, rest)
	}
}

func TestParseRootArgsExtractsOverrides(t *testing.T) {
	args := []string{
		"-c", "k=v",
		"--c=temperature=0.5",
		"-store", "sqlite",
		"resume", "--last",
	}
	root, rest, err := parseRootArgs(args)
	if err != nil {
		t.Fatalf("parseRootArgs returned error: %v", err)
	}
	expectedOverrides := []string{"k=v", "temperature=0.5", "session.backend=sqlite"}
	if !reflect.DeepEqual(root.overrides, expectedOverrides) {
		t.Fatalf("unexpected overrides: got %v, want %v", root.overrides, expectedOverrides)
	}
	if !reflect.DeepEqual(rest, []string{"resume", "--last"}) {
		t.Fatalf("unexpected rest args: %v", rest)
	}
}

func TestParseRootArgsRejectsUnknownStore(t *testing.T) {
	if _, _, err := parseRootArgs([]string{"--store=redis"}); err == nil {
		t.Fatalf("expected error for unknown store")
	}
}

func TestCommonArgsOverridesOrder(t *testing.T) {
	fs, cli := newCommonFlagSet("test")
	if err := fs.Parse([]string{"-c", "model=a", "-model", "b", "-store", "memory"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, err := cli.overrides(rootArgs{overrides: []string{"retries=1"}})
	if err != nil {
		t.Fatalf("overrides: %v", err)
	}
	want := []string{"retries=1", "model=a", "session.backend=memory", "model=b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
