package esclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPath_String(t *testing.T) {
	type args struct {
		path Path
	}

	tests := []struct {
		name    string
		args    args
		wantVal string
	}{
		{
			name:    "given indices type and id, then joins segments in order",
			args:    args{path: Path{Indices: []string{"a", "b"}, Type: "doc", ID: "5"}},
			wantVal: "/a,b/doc/5",
		},
		{
			name:    "given nil indices, then uses the all indices segment",
			args:    args{path: Path{}},
			wantVal: "/_all",
		},
		{
			name:    "given nil indices and endpoint, then endpoint follows all indices",
			args:    args{path: Path{Endpoint: "_search"}},
			wantVal: "/_all/_search",
		},
		{
			name:    "given empty non-nil indices and endpoint, then omits the index segment",
			args:    args{path: Path{Indices: []string{}, Endpoint: "_search"}},
			wantVal: "/_search",
		},
		{
			name:    "given empty non-nil indices and nothing else, then returns root",
			args:    args{path: Path{Indices: []string{}}},
			wantVal: "/",
		},
		{
			name:    "given index with space, then percent-encodes it",
			args:    args{path: Path{Indices: []string{"x y"}}},
			wantVal: "/x%20y",
		},
		{
			name:    "given index containing a comma, then encodes it but not the separator",
			args:    args{path: Path{Indices: []string{"a,b", "c"}}},
			wantVal: "/a%2Cb,c",
		},
		{
			name:    "given id with slash, then encodes the slash",
			args:    args{path: Path{Indices: []string{"logs"}, Type: "_doc", ID: "a/b"}},
			wantVal: "/logs/_doc/a%2Fb",
		},
		{
			name:    "given endpoint with special characters, then appends it verbatim",
			args:    args{path: Path{Indices: []string{"logs"}, Endpoint: "_search/template"}},
			wantVal: "/logs/_search/template",
		},
		{
			name:    "given id without type, then skips the type segment",
			args:    args{path: Path{Indices: []string{"logs"}, ID: "7"}},
			wantVal: "/logs/7",
		},
		{
			name:    "given all parts, then emits index type id endpoint",
			args:    args{path: Path{Indices: []string{"logs"}, Type: "_doc", ID: "7", Endpoint: "_update"}},
			wantVal: "/logs/_doc/7/_update",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantVal, tt.args.path.String())
		})
	}
}

func TestPath_Merge(t *testing.T) {
	base := Path{Indices: []string{"old"}, Type: "t", ID: "1", Endpoint: "_update"}

	tests := []struct {
		name    string
		other   Path
		wantVal Path
	}{
		{
			name:    "given empty path, then keeps every part",
			other:   Path{},
			wantVal: base,
		},
		{
			name:    "given only indices, then replaces indices",
			other:   Path{Indices: []string{"new"}},
			wantVal: Path{Indices: []string{"new"}, Type: "t", ID: "1", Endpoint: "_update"},
		},
		{
			name:    "given endpoint, then keeps the original endpoint",
			other:   Path{ID: "2", Endpoint: "_search"},
			wantVal: Path{Indices: []string{"old"}, Type: "t", ID: "2", Endpoint: "_update"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantVal, base.merge(tt.other))
		})
	}
}
