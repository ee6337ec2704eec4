package toc

// Node is a section with its nested subsections.
type Node struct {
	Section  Section `json:"section"`
	Children []Node  `json:"children,omitempty"`
}

// Tree nests a flat, ordered section list. A section's parent is the closest
// preceding section with a smaller depth.
func Tree(sections []Section) []Node {
	type building struct {
		section  Section
		children []*building
	}
	var roots []*building
	var stack []*building
	for _, s := range sections {
		node := &building{section: s}
		for len(stack) > 0 && stack[len(stack)-1].section.Depth() >= s.Depth() {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, node)
		}
		stack = append(stack, node)
	}

	var convert func([]*building) []Node
	convert = func(in []*building) []Node {
		if len(in) == 0 {
			return nil
		}
		out := make([]Node, 0, len(in))
		for _, b := range in {
			out = append(out, Node{Section: b.section, Children: convert(b.children)})
		}
		return out
	}
	return convert(roots)
}
