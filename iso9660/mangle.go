package iso9660

import (
	"fmt"
	"sort"
	"strings"
)

// mangleTree assigns iso9660Name and jolietName to every node. Each directory's
// children are mangled and deduplicated as a group, in sorted order of their original
// (pre-mangle) name, so the first sibling to claim a mangled name keeps the unsuffixed
// form and later collisions get the numeric suffix.
func mangleTree(root *node, opts *FormatOptions) error {
	var walk func(n *node) error
	walk = func(n *node) error {
		if !n.isDir {
			return nil
		}
		if err := mangleChildren(n, opts); err != nil {
			return err
		}
		for _, c := range n.children {
			if c.isDir {
				if err := walk(c); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(root)
}

// mangleChildren mangles and dedupes the direct children of dir for both the ECMA-119
// and (if enabled) Joliet namespaces.
func mangleChildren(dir *node, opts *FormatOptions) error {
	children := append([]*node(nil), dir.children...)
	sort.Slice(children, func(i, j int) bool { return children[i].name < children[j].name })

	iso9660Used := map[string]bool{}
	jolietUsed := map[string]bool{}

	for _, c := range children {
		base := mangleISO9660Name(c.name, c.isDir, opts.InterchangeLevel)
		final, err := dedupeISO9660Name(base, c.isDir, iso9660Used, opts.Strictness)
		if err != nil {
			return wrapf(KindInvalidInput, c.path, err, "mangling ECMA-119 name for %q", c.name)
		}
		if final != base {
			opts.logger().Warnf("%s: ECMA-119 name %q is already used by a sibling; using %q", c.path, base, final)
		}
		iso9660Used[final] = true
		if c.isDir {
			c.iso9660Name = final
		} else {
			c.iso9660Name = final + ";1"
			iso9660Used[final] = true
		}

		if opts.EnableJoliet {
			jbase := mangleJolietName(c.name)
			jfinal := dedupeJolietName(jbase, jolietUsed)
			jolietUsed[jfinal] = true
			c.jolietName = jfinal
		}

		c.actualISO9660DrSize = calculateDirectoryRecordSize(getDRIdentifierBytes(c.iso9660Name, false, false), opts.EnableRockRidge, c)
		if opts.EnableJoliet {
			c.actualJolietDrSize = calculateDirectoryRecordSize(getDRIdentifierBytes(c.jolietName, true, false), false, c)
		}
	}
	return nil
}

// mangleISO9660Name converts a name to the restricted alphabet of the requested
// interchange level. Level 1 keeps the teacher's strict 8.3/8-char behavior; Level 2/3
// allow up to 30 characters with one dot; NonConformant returns the name unmodified
// (subject only to truncation to the absolute 180-byte identifier ceiling).
func mangleISO9660Name(originalName string, isDirectory bool, level InterchangeLevel) string {
	if level == InterchangeNonConformant {
		if len(originalName) > 180 {
			return originalName[:180]
		}
		return originalName
	}
	if level == InterchangeLevel2 || level == InterchangeLevel3 {
		return mangleLevel23Name(originalName, isDirectory)
	}
	return mangleLevel1Name(originalName, isDirectory)
}

func sanitizeChars(part string, allowDot bool) string {
	part = strings.ToUpper(part)
	var sb strings.Builder
	for _, r := range part {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		case allowDot && r == '.':
			sb.WriteRune('.')
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

// mangleLevel1Name enforces ECMA-119 Level 1: 8.3 for files, 8 characters for
// directories, no dot outside the single file extension separator.
func mangleLevel1Name(originalName string, isDirectory bool) string {
	var base, ext string
	if !isDirectory {
		if lastDot := strings.LastIndex(originalName, "."); lastDot != -1 && lastDot < len(originalName)-1 {
			base, ext = originalName[:lastDot], originalName[lastDot+1:]
		} else {
			base = originalName
		}
	} else {
		base = originalName
	}

	if isDirectory {
		sanitized := sanitizeChars(base, false)
		sanitized = strings.ReplaceAll(sanitized, ".", "_")
		if len(sanitized) > 8 {
			sanitized = sanitized[:8]
		}
		if sanitized == "" {
			return "DIR"
		}
		return sanitized
	}

	finalBase := sanitizeChars(base, true)
	finalExt := ""
	if ext != "" {
		finalExt = sanitizeChars(ext, false)
		if len(finalExt) > 3 {
			finalExt = finalExt[:3]
		}
	}
	if strings.Contains(finalBase, ".") && finalExt == "" {
		parts := strings.SplitN(finalBase, ".", 2)
		if len(parts) == 2 {
			potentialBase := sanitizeChars(parts[0], false)
			potentialExt := sanitizeChars(parts[1], false)
			if len(potentialExt) > 3 {
				potentialExt = potentialExt[:3]
			}
			if potentialBase != "" {
				finalBase = potentialBase
				if potentialExt != "" {
					finalExt = potentialExt
				}
			}
		}
	}
	finalBase = strings.ReplaceAll(finalBase, ".", "_")
	if len(finalBase) > 8 {
		finalBase = finalBase[:8]
	}

	finalName := finalBase
	if finalExt != "" {
		finalName += "." + finalExt
	}
	if finalName == "" || finalName == "." {
		finalName = "FILE"
	}
	return finalName
}

// mangleLevel23Name enforces ECMA-119 Level 2/3: up to 30 characters, one dot.
func mangleLevel23Name(originalName string, isDirectory bool) string {
	if isDirectory {
		sanitized := sanitizeChars(originalName, false)
		sanitized = strings.ReplaceAll(sanitized, ".", "_")
		if len(sanitized) > 30 {
			sanitized = sanitized[:30]
		}
		if sanitized == "" {
			return "DIR"
		}
		return sanitized
	}

	lastDot := strings.LastIndex(originalName, ".")
	var base, ext string
	if lastDot != -1 && lastDot < len(originalName)-1 {
		base, ext = originalName[:lastDot], originalName[lastDot+1:]
	} else {
		base = originalName
	}
	finalBase := sanitizeChars(base, false)
	finalExt := sanitizeChars(ext, false)

	maxTotal := 30 // 1 for the dot accounted below
	if finalExt != "" {
		if len(finalBase)+len(finalExt)+1 > maxTotal {
			overflow := len(finalBase) + len(finalExt) + 1 - maxTotal
			if overflow < len(finalBase) {
				finalBase = finalBase[:len(finalBase)-overflow]
			} else {
				finalBase = ""
			}
		}
		if finalBase == "" {
			return truncateTo(finalExt, maxTotal)
		}
		return finalBase + "." + finalExt
	}
	return truncateTo(finalBase, maxTotal)
}

func truncateTo(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	if s == "" {
		return "FILE"
	}
	return s
}

// dedupeISO9660Name appends a numeric suffix before the extension when base collides
// with an already-used sibling name. In Strict mode, a collision is an error instead.
func dedupeISO9660Name(base string, isDir bool, used map[string]bool, strictness Strictness) (string, error) {
	if !used[base] {
		return base, nil
	}
	if strictness == StrictnessStrict {
		return "", fmt.Errorf("duplicate sibling name %q after mangling", base)
	}
	nameBase, ext := base, ""
	if !isDir {
		if dot := strings.LastIndex(base, "."); dot != -1 {
			nameBase, ext = base[:dot], base[dot:]
		}
	}
	maxBase := 8
	for suffix := 0; suffix < 1000; suffix++ {
		suffixStr := fmt.Sprintf("%03d", suffix)
		trimmed := nameBase
		if len(trimmed)+len(suffixStr) > maxBase {
			trimmed = trimmed[:maxBase-len(suffixStr)]
		}
		candidate := trimmed + suffixStr + ext
		if !used[candidate] {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("exhausted dedup suffixes for %q", base)
}

// mangleJolietName truncates a name component to JolietMaxFilenameChars and rejects the
// disallowed character set by substitution with '_'.
func mangleJolietName(originalName string) string {
	var sb strings.Builder
	for _, r := range originalName {
		switch r {
		case '*', '/', ':', ';', '?', '\\':
			sb.WriteRune('_')
		default:
			sb.WriteRune(r)
		}
	}
	name := sb.String()
	runes := []rune(name)
	if len(runes) > JolietMaxFilenameChars {
		return string(runes[:JolietMaxFilenameChars])
	}
	return name
}

func dedupeJolietName(base string, used map[string]bool) string {
	if !used[base] {
		return base
	}
	ext := ""
	stem := base
	if dot := strings.LastIndex(base, "."); dot != -1 {
		stem, ext = base[:dot], base[dot:]
	}
	for suffix := 0; suffix < 1000; suffix++ {
		candidate := fmt.Sprintf("%s~%d%s", stem, suffix, ext)
		if len(candidate) > JolietMaxFilenameChars {
			overflow := len(candidate) - JolietMaxFilenameChars
			candidate = fmt.Sprintf("%s~%d%s", stem[:max(0, len(stem)-overflow)], suffix, ext)
		}
		if !used[candidate] {
			return candidate
		}
	}
	return base
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
