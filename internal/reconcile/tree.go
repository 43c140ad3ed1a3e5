package reconcile

import (
	"sort"
	"strings"

	"github.com/vidshelf/backend/internal/models"
)

const PathSeparator = " / "

// TreeNode is a folder in the presentation tree. The synthetic root has a nil
// ID and owns every folder without a resolvable parent.
type TreeNode struct {
	ID          *uint       `json:"id"`
	Name        string      `json:"name"`
	ParentID    *uint       `json:"parentID"`
	OwnerID     *uint       `json:"ownerID,omitempty"`
	RemoteDirID *string     `json:"remoteDirID,omitempty"`
	ShareLink   *string     `json:"shareLink,omitempty"`
	Path        string      `json:"path"`
	Depth       int         `json:"depth"`
	Children    []*TreeNode `json:"children"`
}

func (n *TreeNode) IsRoot() bool {
	return n.ID == nil
}

// BuildTree runs in two passes: index every folder, then attach each one to
// its parent or, when the parent is unknown, to the synthetic root. Rows that
// only reach each other through a parent cycle are attached to the root too.
func BuildTree(folders []models.Folder) *TreeNode {
	root := &TreeNode{Name: RootFolderName, Children: []*TreeNode{}}

	nodes := make(map[uint]*TreeNode, len(folders))
	order := make([]uint, 0, len(folders))
	for _, folder := range folders {
		if _, seen := nodes[folder.ID]; seen {
			continue
		}
		id := folder.ID
		owner := folder.UserID
		nodes[id] = &TreeNode{
			ID:          &id,
			Name:        folder.Name,
			ParentID:    folder.ParentID,
			OwnerID:     &owner,
			RemoteDirID: folder.RemoteDirID,
			ShareLink:   folder.ShareLink,
			Children:    []*TreeNode{},
		}
		order = append(order, id)
	}

	parentOf := make(map[uint]*TreeNode, len(nodes))
	for _, id := range order {
		node := nodes[id]
		parent := root
		if node.ParentID != nil {
			if p, ok := nodes[*node.ParentID]; ok && p != node {
				parent = p
			}
		}
		parent.Children = append(parent.Children, node)
		parentOf[id] = parent
	}

	reached := make(map[uint]bool, len(nodes))
	markReached(root, reached)
	for _, id := range order {
		if reached[id] {
			continue
		}
		node := nodes[id]
		detach(parentOf[id], node)
		root.Children = append(root.Children, node)
		parentOf[id] = root
		markReached(node, reached)
	}

	finalize(root, nil, RootFolderName, 0)
	return root
}

func markReached(n *TreeNode, reached map[uint]bool) {
	if n.ID != nil {
		if reached[*n.ID] {
			return
		}
		reached[*n.ID] = true
	}
	for _, child := range n.Children {
		markReached(child, reached)
	}
}

func detach(parent, child *TreeNode) {
	for i, c := range parent.Children {
		if c == child {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			return
		}
	}
}

func finalize(n *TreeNode, parentID *uint, path string, depth int) {
	if n.ID != nil {
		n.ParentID = parentID
	}
	n.Path = path
	n.Depth = depth

	sort.SliceStable(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if !strings.EqualFold(a.Name, b.Name) {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
		return *a.ID < *b.ID
	})

	for _, child := range n.Children {
		finalize(child, n.ID, path+PathSeparator+child.Name, depth+1)
	}
}

// Walk visits the tree in pre-order, root first.
func (n *TreeNode) Walk(fn func(*TreeNode)) {
	fn(n)
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

func (n *TreeNode) Find(id uint) *TreeNode {
	var found *TreeNode
	n.Walk(func(node *TreeNode) {
		if found == nil && node.ID != nil && *node.ID == id {
			found = node
		}
	})
	return found
}

// Flatten returns the real folders in pre-order with their tree parents, so
// orphans come back parentless.
func Flatten(root *TreeNode) []models.Folder {
	var out []models.Folder
	root.Walk(func(node *TreeNode) {
		if node.IsRoot() {
			return
		}
		folder := models.Folder{
			Name:        node.Name,
			ParentID:    node.ParentID,
			RemoteDirID: node.RemoteDirID,
			ShareLink:   node.ShareLink,
		}
		folder.ID = *node.ID
		if node.OwnerID != nil {
			folder.UserID = *node.OwnerID
		}
		out = append(out, folder)
	})
	return out
}

// Paths maps folder ids to display paths such as "Root / Clips / Raw".
func Paths(root *TreeNode) map[uint]string {
	paths := make(map[uint]string)
	root.Walk(func(node *TreeNode) {
		if node.ID != nil {
			paths[*node.ID] = node.Path
		}
	})
	return paths
}

// Descendants returns id and every folder id below it, deepest first.
func Descendants(root *TreeNode, id uint) []uint {
	start := root.Find(id)
	if start == nil {
		return nil
	}
	var ids []uint
	var visit func(n *TreeNode)
	visit = func(n *TreeNode) {
		for _, child := range n.Children {
			visit(child)
		}
		ids = append(ids, *n.ID)
	}
	visit(start)
	return ids
}
