package rtdb

import (
	"strings"
)

const illegalPathChars = ".$#[]"

// CleanPath 规范化路径：去掉首尾的 "/"，并校验每一段
func CleanPath(p string) (string, error) {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || strings.ContainsAny(seg, illegalPathChars) {
			return "", ErrInvalidPath
		}
	}
	return p, nil
}

// Segments 按 "/" 拆分路径
func Segments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// Join 拼接路径段
func Join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(part, "/")
		if part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, "/")
}

// Parent 返回父路径，顶层返回空串
func Parent(p string) string {
	p = strings.Trim(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[:i]
	}
	return ""
}

// Root 返回路径的第一段（集合名）
func Root(p string) string {
	p = strings.Trim(p, "/")
	if i := strings.Index(p, "/"); i >= 0 {
		return p[:i]
	}
	return p
}

// IsAncestorOrSelf a 是否为 b 本身或其祖先
func IsAncestorOrSelf(a, b string) bool {
	a, b = strings.Trim(a, "/"), strings.Trim(b, "/")
	if a == "" || a == b {
		return true
	}
	return strings.HasPrefix(b, a+"/")
}

// Related 两个路径中一个是另一个的祖先（或相同）
func Related(a, b string) bool {
	return IsAncestorOrSelf(a, b) || IsAncestorOrSelf(b, a)
}
