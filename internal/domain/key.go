package domain

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Kind names an entity type.
type Kind string

const (
	KindProfile    Kind = "Profile"
	KindConference Kind = "Conference"
	KindSession    Kind = "Session"
	KindSpeaker    Kind = "Speaker"
)

// Key identifies an entity by kind, native identity and optional parent.
// Exactly one of ID and Name is set on a complete key.
type Key struct {
	Kind   Kind
	ID     int64
	Name   string
	Parent *Key
}

// NewIDKey returns a key with a store-assigned integer identity.
func NewIDKey(kind Kind, id int64, parent *Key) *Key {
	return &Key{Kind: kind, ID: id, Parent: parent}
}

// NewNameKey returns a key with a caller-chosen string identity.
func NewNameKey(kind Kind, name string, parent *Key) *Key {
	return &Key{Kind: kind, Name: name, Parent: parent}
}

// IncompleteKey returns a key whose identity is assigned by the store on Put.
func IncompleteKey(kind Kind, parent *Key) *Key {
	return &Key{Kind: kind, Parent: parent}
}

// Incomplete reports whether the key has no native identity yet.
func (k *Key) Incomplete() bool {
	return k.ID == 0 && k.Name == ""
}

// Equal reports whether both keys name the same entity, parents included.
func (k *Key) Equal(o *Key) bool {
	if k == nil || o == nil {
		return k == o
	}
	if k.Kind != o.Kind || k.ID != o.ID || k.Name != o.Name {
		return false
	}
	return k.Parent.Equal(o.Parent)
}

// String renders the key path, root first: "Conference:i:12/Session:i:40".
// Names are path-escaped so the path can be split on "/".
func (k *Key) String() string {
	if k == nil {
		return ""
	}
	var segs []string
	for cur := k; cur != nil; cur = cur.Parent {
		var seg string
		if cur.Name != "" {
			seg = string(cur.Kind) + ":n:" + url.PathEscape(cur.Name)
		} else {
			seg = string(cur.Kind) + ":i:" + strconv.FormatInt(cur.ID, 10)
		}
		segs = append(segs, seg)
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, "/")
}

// ParseKeyPath parses the output of Key.String.
func ParseKeyPath(path string) (*Key, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty key path", ErrMalformedKey)
	}
	var parent *Key
	for _, seg := range strings.Split(path, "/") {
		parts := strings.SplitN(seg, ":", 3)
		if len(parts) != 3 || parts[0] == "" {
			return nil, fmt.Errorf("%w: bad segment %q", ErrMalformedKey, seg)
		}
		k := &Key{Kind: Kind(parts[0]), Parent: parent}
		switch parts[1] {
		case "i":
			id, err := strconv.ParseInt(parts[2], 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("%w: bad id in segment %q", ErrMalformedKey, seg)
			}
			k.ID = id
		case "n":
			name, err := url.PathUnescape(parts[2])
			if err != nil || name == "" {
				return nil, fmt.Errorf("%w: bad name in segment %q", ErrMalformedKey, seg)
			}
			k.Name = name
		default:
			return nil, fmt.Errorf("%w: bad segment %q", ErrMalformedKey, seg)
		}
		parent = k
	}
	return parent, nil
}

// ContainsKey reports whether keys holds a key equal to k.
func ContainsKey(keys []*Key, k *Key) bool {
	return IndexOfKey(keys, k) >= 0
}

// IndexOfKey returns the position of k in keys, or -1.
func IndexOfKey(keys []*Key, k *Key) int {
	for i, c := range keys {
		if c.Equal(k) {
			return i
		}
	}
	return -1
}
