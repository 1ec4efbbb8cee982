package esclient

type bodyKind uint8

const (
	bodyUnset bodyKind = iota
	bodyRaw
	bodyStructured
)

// Body is a request body: unset, raw JSON text, or a structured document.
//
// The zero Body is unset. Use RawBody or MapBody to build a set one; a
// Request accepts a set Body at most once.
type Body struct {
	kind bodyKind
	raw  string
	doc  map[string]any
}

// RawBody returns a body that is sent verbatim.
func RawBody(json string) Body {
	return Body{kind: bodyRaw, raw: json}
}

// MapBody returns a structured body serialized with the client's
// canonical serializer. A nil map is treated as an empty document.
func MapBody(doc map[string]any) Body {
	if doc == nil {
		doc = make(map[string]any)
	}
	return Body{kind: bodyStructured, doc: doc}
}

// IsSet reports whether the body holds either form.
func (b Body) IsSet() bool { return b.kind != bodyUnset }

// IsRaw reports whether the body holds raw text.
func (b Body) IsRaw() bool { return b.kind == bodyRaw }

// Raw returns the raw text and whether the body is raw.
func (b Body) Raw() (string, bool) {
	return b.raw, b.kind == bodyRaw
}

// Map returns the structured document and whether the body is structured.
func (b Body) Map() (map[string]any, bool) {
	return b.doc, b.kind == bodyStructured
}

// resolve produces the body text. Raw text is returned as-is and the
// serializer is only consulted for structured documents.
func (b Body) resolve(s Serializer) (text string, ok bool, err error) {
	switch b.kind {
	case bodyRaw:
		return b.raw, true, nil
	case bodyStructured:
		text, err = s.Serialize(b.doc)
		if err != nil {
			return "", false, err
		}
		return text, true, nil
	default:
		return "", false, nil
	}
}
