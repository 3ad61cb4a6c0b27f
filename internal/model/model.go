package model

type Kind string

const (
	KindScript Kind = "script"
	KindFolder Kind = "folder"
)

func (k Kind) IsContainer() bool { return k == KindFolder }

// Entry is one child descriptor of a listing, in store order.
type Entry struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Entity is the store's canonical echo of a resource after a mutation.
// Value holds the stored text for scripts and may differ from what was submitted
// when the store normalizes it.
type Entity struct {
	URL   string `json:"url"`
	Name  string `json:"name,omitempty"`
	Kind  Kind   `json:"kind,omitempty"`
	Value string `json:"value,omitempty"`
}

// NodeID is the explorer's stable identity for a tree node. Unlike a url it never
// changes for the lifetime of the node, so it also tells apart nodes that share a url
// or a name.
type NodeID uint64
