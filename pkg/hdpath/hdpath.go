// Package hdpath 解析形如 m/44'/BCH/1/xpub/3 的派生路径。
//
// 路径以 m 开头，其后每一段选择一条边: 段的文本可以匹配子节点的标签，
// 也可以是十进制 id。后缀 ' 表示该边必须是 hardened; 后缀 h 只在数字段上
// 被当作 hardened 标记 (m/44h)，以免与 ETH 这类标签冲突。
package hdpath

import (
	"fmt"
	"strconv"
	"strings"

	"arcula/pkg/errno"
)

const (
	rootMarker     = "m"
	separator      = "/"
	hardenedMarker = "'"
)

// Segment 是路径中的一段
type Segment struct {
	Selector string
	Hardened bool
}

// ID 返回段作为十进制 id 的值
func (s Segment) ID() (uint64, bool) {
	id, err := strconv.ParseUint(s.Selector, 10, 64)
	return id, err == nil
}

func (s Segment) String() string {
	if s.Hardened {
		return s.Selector + hardenedMarker
	}
	return s.Selector
}

// Path 是从根到目标节点的段序列，空路径表示根节点
type Path []Segment

func (p Path) String() string {
	var sb strings.Builder
	sb.WriteString(rootMarker)
	for _, seg := range p {
		sb.WriteString(separator)
		sb.WriteString(seg.String())
	}
	return sb.String()
}

// Parse 解析路径字符串
func Parse(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: 路径为空", errno.ErrInvalidPath)
	}

	parts := strings.Split(s, separator)
	if !strings.EqualFold(parts[0], rootMarker) {
		return nil, fmt.Errorf("%w: 路径必须以 m 开头: %q", errno.ErrInvalidPath, s)
	}

	path := make(Path, 0, len(parts)-1)
	for i, part := range parts[1:] {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, fmt.Errorf("%w: 第 %d 段 %q: %v", errno.ErrInvalidPath, i+1, part, err)
		}
		path = append(path, seg)
	}
	return path, nil
}

// MustParse 用于常量路径，解析失败时 panic
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func parseSegment(part string) (Segment, error) {
	part = strings.TrimSpace(part)
	seg := Segment{Selector: part}

	switch {
	case strings.HasSuffix(part, hardenedMarker):
		seg.Selector = strings.TrimSuffix(part, hardenedMarker)
		seg.Hardened = true
	case len(part) > 1 && (part[len(part)-1] == 'h' || part[len(part)-1] == 'H'):
		if _, err := strconv.ParseUint(part[:len(part)-1], 10, 64); err == nil {
			seg.Selector = part[:len(part)-1]
			seg.Hardened = true
		}
	}

	if seg.Selector == "" {
		return Segment{}, fmt.Errorf("空的选择器")
	}
	if strings.Contains(seg.Selector, hardenedMarker) {
		return Segment{}, fmt.Errorf("选择器中出现多余的 '")
	}
	return seg, nil
}

// Append 返回追加一段之后的新路径
func (p Path) Append(selector string, hardened bool) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, Segment{Selector: selector, Hardened: hardened})
}
