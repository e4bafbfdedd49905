package models

// TreeNode is one samurai in a reconstructed descendant tree.
type TreeNode struct {
	ID         string    `json:"identifier"`
	GivenName  Localized `json:"given_name"`
	FamilyName Localized `json:"family_name"`
	NickName   Localized `json:"nick_name,omitempty"`
	Sex        BirthSex  `json:"sex,omitempty"`
	BirthDate  *Date     `json:"birth_date,omitempty"`
	DeathDate  *Date     `json:"death_date,omitempty"`
	FamilyHead bool      `json:"is_family_head"`
	// RelationshipTypeWithParent is empty on the root.
	RelationshipTypeWithParent string      `json:"relationship_type_with_parent,omitempty"`
	Children                   []*TreeNode `json:"children"`
}

// NewTreeNode converts a samurai into a tree node with no children.
func NewTreeNode(s *Samurai) *TreeNode {
	return &TreeNode{
		ID:         s.ID,
		GivenName:  s.GivenName.Clone(),
		FamilyName: s.FamilyName.Clone(),
		NickName:   s.NickName.Clone(),
		Sex:        s.Sex,
		BirthDate:  s.BirthDate,
		DeathDate:  s.DeathDate,
		FamilyHead: s.FamilyHead,
		Children:   []*TreeNode{},
	}
}

// Walk visits the node and its descendants in pre-order.
func (n *TreeNode) Walk(fn func(*TreeNode)) {
	if n == nil {
		return
	}
	fn(n)
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Size returns the number of nodes in the tree.
func (n *TreeNode) Size() int {
	count := 0
	n.Walk(func(*TreeNode) { count++ })
	return count
}
