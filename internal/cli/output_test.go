package cli

import (
	"bytes"
	"testing"
)

func TestOutput_Table(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutputTo(&buf, &buf, false)

	out.Print([]string{"NAME", "KIND"}, [][]string{{"add", "filter"}}, nil)

	want := "NAME  KIND\n----  ----\nadd   filter\n"
	if buf.String() != want {
		t.Errorf("unexpected table:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestOutput_JSONMode(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutputTo(&buf, &buf, true)

	out.Print([]string{"NAME"}, [][]string{{"ignored"}}, map[string]int{"n": 1})

	want := "{\n  \"n\": 1\n}\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestOutput_Raw(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutputTo(&buf, &buf, false)

	out.Raw([]byte("<step/>"))
	out.Raw([]byte("id: x\n"))

	if buf.String() != "<step/>\nid: x\n" {
		t.Errorf("got %q", buf.String())
	}
}
