package batch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	maxNameLength = 50
	snippetLength = 30
)

var (
	invalidNameChars = strings.NewReplacer(
		"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_",
		`\`, "_", "|", "_", "?", "_", "*", "_", "'", "",
	)
	imageNameRe = regexp.MustCompile(`^image_(\d+)_(.+?)_(.+)\.png$`)
)

// SanitizeFilename makes text safe to embed in a file name and cuts it to
// maxLen runes.
func SanitizeFilename(text string, maxLen int) string {
	text = strings.TrimSpace(invalidNameChars.Replace(text))
	if r := []rune(text); len(r) > maxLen {
		text = string(r[:maxLen])
	}
	return text
}

// ImageFilename names the n-th image: image_NNN_<entity>_<quote snippet>.png.
func ImageFilename(n int, entity, quote string) string {
	snippet := []rune(quote)
	if len(snippet) > snippetLength {
		snippet = snippet[:snippetLength]
	}
	return fmt.Sprintf("image_%03d_%s_%s.png",
		n, SanitizeFilename(entity, maxNameLength), SanitizeFilename(string(snippet), maxNameLength))
}

// ParseImageFilename splits a name produced by ImageFilename.
func ParseImageFilename(name string) (n int, entity, snippet string, ok bool) {
	m := imageNameRe.FindStringSubmatch(name)
	if m == nil {
		return 0, "", "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", "", false
	}
	return n, m[2], m[3], true
}
