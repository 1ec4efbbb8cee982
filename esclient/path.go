package esclient

import (
	"net/url"
	"strings"
)

// AllIndices is the path segment used when no index is given.
const AllIndices = "_all"

// Path addresses a resource on the engine.
//
// Segments are emitted in a fixed order: indices, type, id, endpoint.
// Empty Type, ID and Endpoint are omitted. Indices has three states:
//
//   - nil: all indices, rendered as the "_all" segment
//   - empty, non-nil: no index segment (cluster level, e.g. "/_search")
//   - names: each name escaped on its own, then joined with ","
//
// Example:
//
//	esclient.Path{Indices: []string{"a", "b"}, Type: "doc", ID: "5"}.String()
//	// "/a,b/doc/5"
type Path struct {
	Indices  []string
	Type     string
	ID       string
	Endpoint string
}

// String builds the escaped URL path.
func (p Path) String() string {
	var sb strings.Builder

	switch {
	case p.Indices == nil:
		sb.WriteString("/" + AllIndices)
	case len(p.Indices) > 0:
		sb.WriteByte('/')
		for i, idx := range p.Indices {
			if i > 0 {
				sb.WriteByte(',')
			}
			// Escape before joining so the separator itself stays literal.
			sb.WriteString(url.PathEscape(idx))
		}
	}

	if p.Type != "" {
		sb.WriteString("/" + url.PathEscape(p.Type))
	}
	if p.ID != "" {
		sb.WriteString("/" + url.PathEscape(p.ID))
	}
	if p.Endpoint != "" {
		// Endpoints are fixed operation names like "_search" or "_bulk".
		sb.WriteString("/" + p.Endpoint)
	}

	if sb.Len() == 0 {
		return "/"
	}
	return sb.String()
}

// merge overlays the present addressing parts of o onto p. The endpoint
// belongs to the request kind and is never taken from o.
func (p Path) merge(o Path) Path {
	if o.Indices != nil {
		p.Indices = o.Indices
	}
	if o.Type != "" {
		p.Type = o.Type
	}
	if o.ID != "" {
		p.ID = o.ID
	}
	return p
}
