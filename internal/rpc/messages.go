package rpc

import "time"

// ChunkSize is the payload size of each streamed download message.
const ChunkSize = 32 * 1024

type Empty struct{}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// Node is the wire form of a file or directory. An empty ParentID is the
// owner's root.
type Node struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *Node) IsDir() bool {
	return n.Kind == "directory"
}

type NodeResponse struct {
	Node *Node `json:"node"`
}

type MkdirRequest struct {
	ParentID string `json:"parent_id,omitempty"`
	Name     string `json:"name"`
}

type ListRequest struct {
	ParentID string `json:"parent_id,omitempty"`
}

type ListResponse struct {
	Nodes []*Node `json:"nodes"`
}

type StatRequest struct {
	NodeID string `json:"node_id"`
}

type DeleteRequest struct {
	NodeID string `json:"node_id"`
}

type DeleteResponse struct {
	Deleted int `json:"deleted"`
}

type RenameRequest struct {
	NodeID string `json:"node_id"`
	Name   string `json:"name"`
}

type MoveRequest struct {
	NodeID      string `json:"node_id"`
	NewParentID string `json:"new_parent_id,omitempty"`
}

// ShareRequest asks for a public link. A nil TTLSeconds never expires.
type ShareRequest struct {
	NodeID     string `json:"node_id"`
	ReadOnly   bool   `json:"read_only"`
	TTLSeconds *int64 `json:"ttl_seconds,omitempty"`
}

type ShareResponse struct {
	Token     string     `json:"token"`
	NodeID    string     `json:"node_id"`
	ReadOnly  bool       `json:"read_only"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type UnshareRequest struct {
	Token string `json:"token"`
}

type UploadHeader struct {
	ParentID string `json:"parent_id,omitempty"`
	Name     string `json:"name"`
}

// UploadMessage is one message of the Upload stream. The first message
// carries only Header, every later one only Chunk.
type UploadMessage struct {
	Header *UploadHeader `json:"header,omitempty"`
	Chunk  []byte        `json:"chunk,omitempty"`
}

type DownloadRequest struct {
	NodeID string `json:"node_id"`
}

// DownloadMessage is one message of the Download stream. The first message
// carries only Node, every later one only Chunk.
type DownloadMessage struct {
	Node  *Node  `json:"node,omitempty"`
	Chunk []byte `json:"chunk,omitempty"`
}
