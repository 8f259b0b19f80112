package main

import "testing"

func TestLintSource(t *testing.T) {
	src := "package q\n\n" +
		"const QGood = `--sql 8a8e0d52-7f5d-4f21-8b7d-f7d4b821eed7\nselect 1;\n`\n\n" +
		"const QBad = `\nselect token from t;\n`\n\n" +
		"const QBadMarker = `--sql nope\ninsert into t values (1);\n`\n\n" +
		"const message = \"select a function\"\n"

	violations, statements, err := lintSource("q.go", src)
	if err != nil {
		t.Fatalf("lintSource: %v", err)
	}
	if len(statements) != 1 || statements[0].name != "QGood" || statements[0].marker != "8a8e0d52-7f5d-4f21-8b7d-f7d4b821eed7" {
		t.Fatalf("unexpected statements %+v", statements)
	}
	if len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %+v", violations)
	}
	if violations[0].name != "QBad" || violations[1].name != "QBadMarker" {
		t.Fatalf("unexpected violation names %+v", violations)
	}
}

func TestDuplicateMarkers(t *testing.T) {
	statements := []statement{
		{file: "a.go", name: "QOne", marker: "m1"},
		{file: "b.go", name: "QTwo", marker: "m2"},
		{file: "c.go", name: "QThree", marker: "m1"},
	}
	dups := duplicateMarkers(statements)
	if len(dups) != 1 || dups[0].name != "QThree" {
		t.Fatalf("unexpected duplicates %+v", dups)
	}
}
