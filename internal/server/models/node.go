package models

import "time"

// NodeKind distinguishes files from directories.
type NodeKind string

const (
	KindFile      NodeKind = "file"
	KindDirectory NodeKind = "directory"
)

// Node is a file or directory in an owner's tree. A nil ParentID places the
// node at the owner's root. ContentRef is set iff Kind is KindFile.
type Node struct {
	ID         string
	OwnerID    string
	ParentID   *string
	Name       string
	Kind       NodeKind
	Size       int64
	ContentRef *string
	// Seq breaks ties between nodes created within the same timestamp.
	Seq       int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (n *Node) IsDir() bool {
	return n.Kind == KindDirectory
}

// SameParent reports whether parentID names the node's current parent.
func (n *Node) SameParent(parentID *string) bool {
	if n.ParentID == nil || parentID == nil {
		return n.ParentID == nil && parentID == nil
	}
	return *n.ParentID == *parentID
}
