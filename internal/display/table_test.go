package display

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewTable(t *testing.T) {
	tbl := NewTable([]string{"Name", "Value"})
	if tbl.highlightRow != -1 {
		t.Errorf("highlightRow = %d, want -1", tbl.highlightRow)
	}
}

func TestTable_EmptyHeaders(t *testing.T) {
	if got := NewTable([]string{}).Render(); got != "" {
		t.Errorf("Render() with empty headers = %q, want empty", got)
	}
}

func TestTable_BasicRender(t *testing.T) {
	SetEnabled(false)

	tbl := NewTable([]string{"Vakit", "Saat"})
	tbl.AddRow([]string{"İmsak", "05:30"})
	tbl.AddRow([]string{"Güneş", "07:00"})

	got := tbl.Render()
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")

	if len(lines) != 4 {
		t.Fatalf("expected 4 lines (header, separator, 2 rows), got %d:\n%s", len(lines), got)
	}
	if !strings.Contains(lines[1], "─") {
		t.Error("Render() missing separator line")
	}
	if !strings.Contains(got, "İmsak") || !strings.Contains(got, "07:00") {
		t.Errorf("Render() missing row values:\n%s", got)
	}
}

func TestTable_AlignsMultibyteNames(t *testing.T) {
	SetEnabled(false)

	tbl := NewTable([]string{"Vakit", "Saat"})
	for _, name := range []string{"İmsak", "Öğle", "İkindi", "Yatsı"} {
		tbl.AddRow([]string{name, "12:00"})
	}

	lines := strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n")
	col := -1
	for _, line := range lines[2:] {
		idx := strings.Index(line, "12:00")
		runeIdx := utf8.RuneCountInString(line[:idx])
		if col == -1 {
			col = runeIdx
		}
		if runeIdx != col {
			t.Errorf("time column misaligned in %q: at %d, want %d", line, runeIdx, col)
		}
	}
}

func TestTable_HighlightRow(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	tbl := NewTable([]string{"Vakit", "Saat"})
	tbl.AddRow([]string{"Akşam", "18:20"})
	tbl.AddRow([]string{"Yatsı", "19:45"})
	tbl.SetHighlightRow(0)

	lines := strings.Split(tbl.Render(), "\n")
	if !strings.Contains(lines[2], "\033[1m\033[36m") {
		t.Error("highlighted row should use the accent style")
	}
	if strings.Contains(lines[3], "\033[36m") {
		t.Error("other rows should not be highlighted")
	}
}

func TestFormatRow(t *testing.T) {
	got := formatRow([]string{"Öğle", "de"}, []int{5, 4})
	want := "Öğle   de  "
	if got != want {
		t.Errorf("formatRow = %q, want %q", got, want)
	}
}

func TestFormatRow_MissingCells(t *testing.T) {
	got := formatRow([]string{"a"}, []int{3, 5})
	want := "a         "
	if got != want {
		t.Errorf("formatRow = %q, want %q", got, want)
	}
}
