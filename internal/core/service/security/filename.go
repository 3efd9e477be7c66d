package security

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const replacementChar = '_'

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true,
	"COM4": true, "COM5": true, "COM6": true,
	"COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true,
	"LPT4": true, "LPT5": true, "LPT6": true,
	"LPT7": true, "LPT8": true, "LPT9": true,
}

// Characters that have meaning to shells or filesystems.
const problemChars = `<>:"/\|?*~;#$%&'(){}[]!` + "`"

// Sanitize builds a safe filename from arbitrary input. It is total: for any
// input, including empty or hostile strings, it returns some usable name. The
// result never contains path separators, traversal sequences, NUL bytes, or a
// deny-listed extension as a suffix.
func (v *Validator) Sanitize(filename string) string {
	name := strings.ReplaceAll(filename, "\x00", "")

	// Drop any path components.
	if p := strings.LastIndexAny(name, `/\`); p != -1 {
		name = name[p+1:]
	}
	name = strings.ReplaceAll(name, "..", "")

	name = replaceProblemRunes(name)
	name = strings.Trim(name, ". ")

	base, ext := splitExt(name)
	ext = v.neutralizeExtension(ext)

	if reservedNames[strings.ToUpper(base)] {
		base = string(replacementChar) + base
	}

	if base == "" {
		base = fmt.Sprintf("file_%s", uuid.NewString()[:8])
	}

	if v.cfg.AppendTimestamp {
		base = fmt.Sprintf("%s_%d", base, time.Now().Unix())
	}

	// Truncate to the byte budget, keeping the extension intact.
	if max := v.cfg.MaxFileNameLength; max > 0 && len(base)+len(ext) > max {
		keep := max - len(ext)
		if keep < 1 {
			keep = 1
		}
		base = base[:keep]
	}

	return base + ext
}

// neutralizeExtension rewrites a dangerous trailing extension chain so that no
// deny-listed form survives as a suffix: "x.php" -> "x_php", "x.php.jpg" -> "x_php.jpg".
func (v *Validator) neutralizeExtension(ext string) string {
	if ext == "" {
		return ""
	}
	segments := strings.Split(strings.TrimPrefix(ext, "."), ".")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if _, denied := v.deniedExts["."+strings.ToLower(seg)]; denied {
			out = append(out, string(replacementChar)+seg)
		} else {
			out = append(out, "."+seg)
		}
	}
	return strings.Join(out, "")
}

// splitExt splits "archive.tar.gz" into ("archive", ".tar.gz") so that multi
// part extensions stay inspectable as a chain.
func splitExt(name string) (string, string) {
	trimmed := strings.TrimLeft(name, ".")
	offset := len(name) - len(trimmed)
	if p := strings.IndexByte(trimmed, '.'); p != -1 {
		return name[:offset+p], trimmed[p:]
	}
	return name, ""
}

func replaceProblemRunes(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	prev := rune(replacementChar)
	for _, r := range s {
		switch {
		case unicode.IsControl(r) || !unicode.IsPrint(r):
			continue
		case unicode.IsSpace(r), strings.ContainsRune(problemChars, r):
			r = replacementChar
		}
		// Collapse runs of the replacement character.
		if r == replacementChar && prev == replacementChar {
			continue
		}
		sb.WriteRune(r)
		prev = r
	}

	return strings.Trim(sb.String(), string(replacementChar))
}
