package hierarchy

import (
	"strconv"
	"strings"

	"arcula/pkg/derivation"
	"arcula/pkg/hdpath"
)

const rootSelector = "m"

// match 返回 n 下被 selector 选中的子节点。标签匹配 (忽略大小写) 优先于 id 匹配。
func (n *Node) match(selector string) []*Node {
	var byTag, byID []*Node
	id, numeric := parseID(selector)
	for _, e := range n.edges {
		if e.tag != "" && strings.EqualFold(e.tag, selector) {
			byTag = append(byTag, e)
		} else if numeric && e.id == id {
			byID = append(byID, e)
		}
	}
	if len(byTag) > 0 {
		return byTag
	}
	return byID
}

func parseID(s string) (uint64, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	return id, err == nil
}

// Find 沿路径从 root 向下查找节点
func Find(root *Node, path hdpath.Path) (*Node, error) {
	if root == nil {
		return nil, ErrNilNode
	}

	cur := root
	for _, seg := range path {
		candidates := cur.match(seg.Selector)
		if len(candidates) == 0 {
			return nil, &PathNotFoundError{Path: path.String(), Segment: seg.String(), Reason: "没有匹配的边"}
		}
		if seg.Hardened {
			hardened := candidates[:0:0]
			for _, c := range candidates {
				if c.mode == derivation.Hardened {
					hardened = append(hardened, c)
				}
			}
			if len(hardened) == 0 {
				return nil, &PathNotFoundError{Path: path.String(), Segment: seg.String(), Reason: "匹配的边不是 hardened"}
			}
			candidates = hardened
		}
		if len(candidates) > 1 {
			return nil, &PathNotFoundError{Path: path.String(), Segment: seg.String(), Reason: "匹配到多条边"}
		}
		cur = candidates[0]
	}
	return cur, nil
}

// Lookup 解析路径字符串并查找节点
func (n *Node) Lookup(path string) (*Node, error) {
	p, err := hdpath.Parse(path)
	if err != nil {
		return nil, err
	}
	return Find(n, p)
}
