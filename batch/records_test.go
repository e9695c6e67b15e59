package batch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), RecordsFile)

	s, err := LoadStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 || s.MaxNumber() != 0 {
		t.Fatalf("fresh store has %d records, max %d", s.Len(), s.MaxNumber())
	}

	s.Upsert(Record{ImageNumber: 2, Entity: "Vega", InstagramCaption: "✨ bright ✨ <b>"})
	s.Upsert(Record{ImageNumber: 1, Entity: "Sirius"})
	if replaced := s.Upsert(Record{ImageNumber: 2, Entity: "Vega", Quote: "Vega spins fast."}); !replaced {
		t.Error("Upsert of an existing number did not replace")
	}
	s.Sort()
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"image_number": 1`) {
		t.Errorf("unexpected encoding:\n%s", raw)
	}

	loaded, err := LoadStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 2 || loaded.MaxNumber() != 2 {
		t.Fatalf("loaded %d records, max %d", loaded.Len(), loaded.MaxNumber())
	}
	if got := loaded.Records()[0].Entity; got != "Sirius" {
		t.Errorf("first record = %q, want sorted order", got)
	}
	if r, ok := loaded.Find(2); !ok || r.Quote != "Vega spins fast." || r.InstagramCaption != "" {
		t.Errorf("Find(2) = %+v, %v", r, ok)
	}
}

func TestStoreKeepsUnicodeUnescaped(t *testing.T) {
	path := filepath.Join(t.TempDir(), RecordsFile)
	s, _ := LoadStore(path)
	s.Upsert(Record{ImageNumber: 1, InstagramCaption: "✨ stars & dust ✨"})
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "✨ stars & dust ✨") {
		t.Errorf("caption escaped:\n%s", raw)
	}
}

func TestLoadStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), RecordsFile)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadStore(path)
	if !errors.Is(err, ErrCorruptStore) {
		t.Fatalf("err = %v, want ErrCorruptStore", err)
	}
	if s == nil || s.Len() != 0 {
		t.Fatal("corrupt load should return an empty store")
	}
}

func TestTextLog(t *testing.T) {
	dir := t.TempDir()
	log := TextLog{Path: filepath.Join(dir, TextLogFile)}
	if log.Exists() {
		t.Fatal("log exists before header")
	}
	nums, err := log.Numbers()
	if err != nil || len(nums) != 0 {
		t.Fatalf("Numbers on missing log = %v, %v", nums, err)
	}

	if err := log.WriteHeader(2, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	recs := []Record{
		{ImageNumber: 1, Filename: "image_001_Moon_a.png", Entity: "Moon", Quote: "The Moon drifts away.", InstagramCaption: "✨ The Moon drifts away. ✨\n\n#space #moon"},
		{ImageNumber: 12, Filename: "image_012_Mars_b.png", Entity: "Mars", Quote: "Mars has dust storms.", InstagramCaption: "Red.\n#mars"},
	}
	for _, r := range recs {
		if err := log.Append(r); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(log.Path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{"Generated on: 2024-05-01 10:30:00", "Total images: 2", "Image #001", "Image #012"} {
		if !strings.Contains(content, want) {
			t.Errorf("log missing %q", want)
		}
	}

	nums, err = log.Numbers()
	if err != nil {
		t.Fatal(err)
	}
	if len(nums) != 2 || !nums[1] || !nums[12] {
		t.Errorf("Numbers = %v", nums)
	}

	parsed := ParseTextLog(content, "images")
	if len(parsed) != 2 {
		t.Fatalf("parsed %d blocks, want 2", len(parsed))
	}
	for i, r := range parsed {
		want := recs[i]
		if r.ImageNumber != want.ImageNumber || r.Filename != want.Filename || r.Entity != want.Entity ||
			r.Quote != want.Quote || r.InstagramCaption != want.InstagramCaption {
			t.Errorf("block %d = %+v, want %+v", i, r, want)
		}
		if r.ImagePathRelative != "images/"+want.Filename {
			t.Errorf("block %d relative path = %q", i, r.ImagePathRelative)
		}
	}
}

func TestParseTextLogIgnoresGarbage(t *testing.T) {
	if got := ParseTextLog("nothing to see\n"+rule+"\nINSTAGRAM\n", "images"); len(got) != 0 {
		t.Errorf("got %d records", len(got))
	}
}
