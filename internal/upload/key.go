package upload

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

var (
	whitespace  = regexp.MustCompile(`\s+`)
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
)

// SanitizeName 去掉原扩展名，空白换成 "-"，只保留字母数字、点和横线
func SanitizeName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	base = whitespace.ReplaceAllString(base, "-")
	base = unsafeChars.ReplaceAllString(base, "")
	base = strings.Trim(base, ".")
	if base == "" {
		return "image"
	}
	return base
}

// ObjectKey {prefix}/{owner}/{unixnano}-{index}-{name}.webp
func ObjectKey(prefix, owner string, at time.Time, index int, name string) string {
	k := fmt.Sprintf("%s/%d-%d-%s.webp", owner, at.UnixNano(), index, SanitizeName(name))
	if prefix == "" {
		return k
	}
	return strings.TrimSuffix(prefix, "/") + "/" + k
}
