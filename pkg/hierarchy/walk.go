package hierarchy

import (
	"errors"
	"fmt"
	"strings"
)

// Order 是遍历顺序
type Order uint8

const (
	DepthFirst Order = iota
	BreadthFirst
)

func (o Order) String() string {
	switch o {
	case DepthFirst:
		return "depth-first"
	case BreadthFirst:
		return "breadth-first"
	default:
		return fmt.Sprintf("order(%d)", uint8(o))
	}
}

// ParseOrder 解析配置中的遍历顺序 ("dfs" / "bfs")
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dfs", "depth-first", "depth":
		return DepthFirst, nil
	case "bfs", "breadth-first", "breadth":
		return BreadthFirst, nil
	default:
		return 0, fmt.Errorf("未知的遍历顺序: %s", s)
	}
}

// SkipSubtree 由 Walk 的回调返回，表示跳过当前节点的子树
var SkipSubtree = errors.New("skip subtree")

// Walk 以先父后子的顺序访问 root 子树中的每个节点。
func Walk(root *Node, order Order, fn func(*Node) error) error {
	if root == nil {
		return ErrNilNode
	}
	if order == BreadthFirst {
		return walkBreadth(root, fn)
	}
	return walkDepth(root, fn)
}

func walkDepth(n *Node, fn func(*Node) error) error {
	if err := fn(n); err != nil {
		if errors.Is(err, SkipSubtree) {
			return nil
		}
		return err
	}
	for _, child := range n.edges {
		if err := walkDepth(child, fn); err != nil {
			return err
		}
	}
	return nil
}

func walkBreadth(root *Node, fn func(*Node) error) error {
	queue := []*Node{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if err := fn(n); err != nil {
			if errors.Is(err, SkipSubtree) {
				continue
			}
			return err
		}
		queue = append(queue, n.edges...)
	}
	return nil
}

// Levels 按深度分组返回子树中的节点，Levels(root)[0] 只含 root。
func Levels(root *Node) [][]*Node {
	var levels [][]*Node
	for level := []*Node{root}; len(level) > 0; {
		levels = append(levels, level)
		var next []*Node
		for _, n := range level {
			next = append(next, n.edges...)
		}
		level = next
	}
	return levels
}

// Count 返回子树中的节点数
func Count(root *Node) int {
	count := 0
	_ = Walk(root, DepthFirst, func(*Node) error {
		count++
		return nil
	})
	return count
}
