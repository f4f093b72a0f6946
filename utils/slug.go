package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphen   = regexp.MustCompile(`-+`)
)

// Slugify turns free text into a [a-z0-9-] slug: diacritics stripped,
// hyphens compressed, trimmed, capped at maxLen (100 when <= 0).
func Slugify(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 100
	}
	s = strings.ToLower(strings.TrimSpace(s))

	var buf []rune
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		buf = append(buf, r)
	}
	s = string(buf)

	s = reNonAlnum.ReplaceAllString(s, "-")
	s = reHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if s == "" {
		s = "item"
	}
	if utf8.RuneCountInString(s) > maxLen {
		rs := []rune(s)
		s = strings.Trim(string(rs[:maxLen]), "-")
	}
	if s == "" {
		s = "item"
	}
	return s
}

// EnsureUnique probes table.column for base and returns base unchanged when
// free, otherwise base suffixed with the next numeric suffix ("-2", "-3", ...).
// scope, when non-nil, narrows the probe (e.g. to one form's fields).
func EnsureUnique(db *gorm.DB, base, table, column string, scope func(*gorm.DB) *gorm.DB) (string, error) {
	q := db.Table(table)
	if scope != nil {
		q = scope(q)
	}

	var count int64
	if err := q.
		Where(fmt.Sprintf("%s = ?", column), base).
		Count(&count).Error; err != nil {
		return "", err
	}
	if count == 0 {
		return base, nil
	}

	type row struct{ Value string }
	var rows []row
	probe := db.Table(table)
	if scope != nil {
		probe = scope(probe)
	}
	if err := probe.
		Select(column+" as value").
		Where(fmt.Sprintf("%s = ? OR %s LIKE ?", column, column), base, base+"%").
		Find(&rows).Error; err != nil {
		return "", err
	}

	maxN := 1
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `-(\d+)$`)
	for _, r := range rows {
		if m := re.FindStringSubmatch(r.Value); len(m) == 2 {
			var n int
			fmt.Sscanf(m[1], "%d", &n)
			if n > maxN {
				maxN = n
			}
		}
	}
	return fmt.Sprintf("%s-%d", base, maxN+1), nil
}
