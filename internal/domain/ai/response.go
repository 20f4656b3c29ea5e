package ai

// ResponseKind tags the shape a model call produced.
type ResponseKind int

const (
	// KindAbsent means the call produced nothing usable.
	KindAbsent ResponseKind = iota
	// KindStructured means the model returned a decoded field mapping.
	KindStructured
	// KindText means the model returned free text.
	KindText
)

// Response is the closed variant returned by a model call. The kind is decided
// once at the client boundary so downstream code never inspects runtime types.
type Response struct {
	Kind   ResponseKind
	Fields map[string]any
	Text   string
}

func Structured(fields map[string]any) Response {
	return Response{Kind: KindStructured, Fields: fields}
}

func Text(text string) Response {
	return Response{Kind: KindText, Text: text}
}

func Absent() Response {
	return Response{Kind: KindAbsent}
}

// AuditContent keeps raw model output loggable without dumping huge payloads
// unsanitized.
func (r Response) AuditContent() any {
	switch r.Kind {
	case KindStructured:
		return r.Fields
	case KindText:
		return r.Text
	default:
		return nil
	}
}
