package util

import (
	"reflect"
	"testing"
)

func TestParseCSVList_EmptyValues_ReturnsNil(t *testing.T) {
	if got := ParseCSVList(nil); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
	if got := ParseCSVList([]string{""}); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
}

func TestParseCSVList_UsesFirstValueOnly(t *testing.T) {
	got := ParseCSVList([]string{"submitted,selected", "rejected"})
	want := []string{"submitted", "selected"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

func TestParseCSVList_SplitsTrimsAndDropsBlanks(t *testing.T) {
	got := ParseCSVList([]string{" pending ,, submitted , "})
	want := []string{"pending", "submitted"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

func TestParseCSVList_OnlySeparators_ReturnsEmptySlice(t *testing.T) {
	got := ParseCSVList([]string{" , ,"})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestExtFromFilenameOrMime(t *testing.T) {
	tests := []struct {
		name, mime, want string
	}{
		{"Song.MP3", "", ".mp3"},
		{"blob", "audio/mpeg", ".mp3"},
		{"blob", "video/quicktime", ".mov"},
		{"blob", "application/pdf", ".pdf"},
		{"blob", "image/png", ".png"},
		{"blob", "application/x-unknown", ".bin"},
	}
	for _, tt := range tests {
		if got := ExtFromFilenameOrMime(tt.name, tt.mime); got != tt.want {
			t.Fatalf("ExtFromFilenameOrMime(%q,%q) = %q, want %q", tt.name, tt.mime, got, tt.want)
		}
	}
}

func TestSafeBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Bank Slip.PDF", "bank-slip"},
		{`C:\Users\me\scene 1.png`, "scene-1"},
		{"../../etc/passwd", "passwd"},
		{".mp3", "file"},
		{"", "file"},
	}
	for _, tt := range tests {
		if got := SafeBaseName(tt.in); got != tt.want {
			t.Fatalf("SafeBaseName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClampText(t *testing.T) {
	if got := ClampText("  あいうえお  ", 3); got != "あいう" {
		t.Fatalf("got %q", got)
	}
	if got := ClampText("ok", 10); got != "ok" {
		t.Fatalf("got %q", got)
	}
}
