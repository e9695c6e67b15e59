package batch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the format of Record.GeneratedAt.
const TimeLayout = "2006-01-02 15:04:05"

// ErrCorruptStore is returned by LoadStore when the JSON file cannot be parsed.
// The returned store is empty and usable.
var ErrCorruptStore = errors.New("batch: records file is not valid JSON")

// Record describes one generated image.
type Record struct {
	ImageNumber       int    `json:"image_number"`
	Filename          string `json:"filename"`
	ImagePath         string `json:"image_path"`
	ImagePathRelative string `json:"image_path_relative"`
	Entity            string `json:"entity"`
	Quote             string `json:"quote"`
	InstagramCaption  string `json:"instagram_caption"`
	GeneratedAt       string `json:"generated_at"`
}

// Store is the JSON array of records kept next to the images.
type Store struct {
	path    string
	records []Record
}

// LoadStore reads path. A missing file yields an empty store.
func LoadStore(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		s.records = nil
		return s, fmt.Errorf("%w: %s: %v", ErrCorruptStore, path, err)
	}
	return s, nil
}

// Records returns the records in file order.
func (s *Store) Records() []Record { return s.records }

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// Find returns the record with image number n.
func (s *Store) Find(n int) (Record, bool) {
	for _, r := range s.records {
		if r.ImageNumber == n {
			return r, true
		}
	}
	return Record{}, false
}

// MaxNumber returns the highest image number, or 0.
func (s *Store) MaxNumber() int {
	highest := 0
	for _, r := range s.records {
		if r.ImageNumber > highest {
			highest = r.ImageNumber
		}
	}
	return highest
}

// Upsert replaces the record with the same image number or appends rec. It
// reports whether a record was replaced.
func (s *Store) Upsert(rec Record) bool {
	for i, r := range s.records {
		if r.ImageNumber == rec.ImageNumber {
			s.records[i] = rec
			return true
		}
	}
	s.records = append(s.records, rec)
	return false
}

// Sort orders records by image number.
func (s *Store) Sort() {
	sort.SliceStable(s.records, func(i, j int) bool {
		return s.records[i].ImageNumber < s.records[j].ImageNumber
	})
}

// Save writes the store as indented JSON without escaping non-ASCII or HTML
// characters.
func (s *Store) Save() error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	records := s.records
	if records == nil {
		records = []Record{}
	}
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

var (
	rule      = strings.Repeat("=", 80)
	thinRule  = strings.Repeat("-", 80)
	blockRe   = regexp.MustCompile(`(?s)={80}\s+Image #(\d+)\s+Filename: (.+?)\s+Entity: (.+?)\s+Quote: (.+?)\s+-{80}\s+Instagram Caption:\s+(.+?)\s+={80}`)
	numberRe  = regexp.MustCompile(`Image #(\d+)`)
	logHeader = "INSTAGRAM CAPTIONS FOR GENERATED IMAGES"
)

// TextLog is the human readable caption log kept next to the JSON store.
type TextLog struct {
	Path string
}

// Exists reports whether the log file is present.
func (l TextLog) Exists() bool {
	_, err := os.Stat(l.Path)
	return err == nil
}

// WriteHeader truncates the log and writes its banner.
func (l TextLog) WriteHeader(total int, now time.Time) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n%s\n%s\n", rule, logHeader, rule)
	fmt.Fprintf(&sb, "Generated on: %s\n", now.Format(TimeLayout))
	fmt.Fprintf(&sb, "Total images: %d\n", total)
	fmt.Fprintf(&sb, "%s\n\n", rule)
	if err := os.WriteFile(l.Path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", l.Path, err)
	}
	return nil
}

// Append adds one record block to the log.
func (l TextLog) Append(r Record) error {
	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", l.Path, err)
	}
	_, err = fmt.Fprintf(f, "\n%s\nImage #%03d\nFilename: %s\nEntity: %s\nQuote: %s\n%s\nInstagram Caption:\n%s\n%s\n",
		rule, r.ImageNumber, r.Filename, r.Entity, r.Quote, thinRule, r.InstagramCaption, rule)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("appending to %s: %w", l.Path, err)
	}
	return nil
}

// Numbers returns the image numbers mentioned in the log. A missing log has
// none.
func (l TextLog) Numbers() (map[int]bool, error) {
	data, err := os.ReadFile(l.Path)
	if os.IsNotExist(err) {
		return map[int]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", l.Path, err)
	}
	nums := map[int]bool{}
	for _, m := range numberRe.FindAllStringSubmatch(string(data), -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			nums[n] = true
		}
	}
	return nums, nil
}

// ParseTextLog extracts the record blocks of a caption log. Paths are
// resolved against imagesDir; GeneratedAt is left empty.
func ParseTextLog(content, imagesDir string) []Record {
	var out []Record
	for _, m := range blockRe.FindAllStringSubmatch(content, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		filename := strings.TrimSpace(m[2])
		out = append(out, Record{
			ImageNumber:       n,
			Filename:          filename,
			ImagePath:         filepath.Join(imagesDir, filename),
			ImagePathRelative: filepath.ToSlash(filepath.Join(imagesDir, filename)),
			Entity:            strings.TrimSpace(m[3]),
			Quote:             strings.TrimSpace(m[4]),
			InstagramCaption:  strings.TrimSpace(m[5]),
		})
	}
	return out
}
