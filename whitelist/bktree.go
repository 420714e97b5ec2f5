package whitelist

// bkNode is one whitelist entry in a BK-tree keyed by hamming distance.
type bkNode struct {
	barcode  string
	children map[int]*bkNode
}

// bkTree indexes equal-width barcodes so tolerant lookups only visit
// subtrees the triangle inequality cannot rule out.
type bkTree struct {
	root  *bkNode
	count int
}

func newBKTree(entries []string) *bkTree {
	tree := &bkTree{}
	for _, bc := range entries {
		tree.insert(bc)
	}
	return tree
}

func (tree *bkTree) insert(barcode string) {
	if tree.root == nil {
		tree.root = &bkNode{barcode: barcode, children: make(map[int]*bkNode)}
		tree.count++
		return
	}
	if tree.root.insert(barcode) {
		tree.count++
	}
}

func (node *bkNode) insert(barcode string) bool {
	for {
		dist := Hamming(node.barcode, barcode)
		if dist == 0 {
			return false
		}
		child, exists := node.children[dist]
		if !exists {
			node.children[dist] = &bkNode{
				barcode:  barcode,
				children: make(map[int]*bkNode),
			}
			return true
		}
		node = child
	}
}

// search returns the nearest barcode within maxDist of query, ties going to
// the lexicographically smallest. ok is false when nothing qualifies.
func (tree *bkTree) search(query string, maxDist int) (match string, dist int, ok bool) {
	if tree.root == nil {
		return "", -1, false
	}
	bestDist := -1
	var best string
	stack := []*bkNode{tree.root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		d := Hamming(node.barcode, query)
		if d <= maxDist && better(d, node.barcode, bestDist, best) {
			bestDist = d
			best = node.barcode
		}
		lo := d - maxDist
		if lo < 1 {
			lo = 1
		}
		for childDist := lo; childDist <= d+maxDist; childDist++ {
			if child, exists := node.children[childDist]; exists {
				stack = append(stack, child)
			}
		}
	}
	return best, bestDist, bestDist >= 0
}
