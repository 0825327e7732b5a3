package http3

import "github.com/goburrow/quic/qpack"

// Request is one HTTP/3 request (spec §6.3: "request(method, scheme,
// authority, path, headers, body, on_response)"). Pseudo-headers are
// tracked separately from Headers, which holds the regular fields only;
// encodeFieldSection always places them first as RFC 9114 §4.3 requires.
type Request struct {
	Method    string
	Scheme    string
	Authority string
	Path      string
	Headers   []qpack.HeaderField
	Body      []byte
}

// Response is one HTTP/3 response. Status carries the ":status"
// pseudo-header value as a plain string (e.g. "200").
type Response struct {
	Status  string
	Headers []qpack.HeaderField
	Body    []byte
}

func (r Request) encodeFieldSection(enc *qpack.Encoder) []byte {
	fields := make([]qpack.HeaderField, 0, 4+len(r.Headers))
	fields = append(fields,
		qpack.HeaderField{Name: ":method", Value: r.Method},
		qpack.HeaderField{Name: ":scheme", Value: r.Scheme},
		qpack.HeaderField{Name: ":authority", Value: r.Authority},
		qpack.HeaderField{Name: ":path", Value: r.Path},
	)
	fields = append(fields, r.Headers...)
	return enc.EncodeFieldSection(fields)
}

func (r Response) encodeFieldSection(enc *qpack.Encoder) []byte {
	fields := make([]qpack.HeaderField, 0, 1+len(r.Headers))
	fields = append(fields, qpack.HeaderField{Name: ":status", Value: r.Status})
	fields = append(fields, r.Headers...)
	return enc.EncodeFieldSection(fields)
}

// decodeRequest splits a decoded field section into its four mandatory
// request pseudo-headers (spec §4.16: "MUST appear before regular
// headers") and the remaining regular fields, preserving order for the
// latter.
func decodeRequest(fields []qpack.HeaderField) (Request, error) {
	var r Request
	for _, f := range fields {
		switch f.Name {
		case ":method":
			r.Method = f.Value
		case ":scheme":
			r.Scheme = f.Value
		case ":authority":
			r.Authority = f.Value
		case ":path":
			r.Path = f.Value
		default:
			r.Headers = append(r.Headers, f)
		}
	}
	if r.Method == "" || r.Path == "" {
		return Request{}, newError(ErrMessageError, "missing mandatory request pseudo-header")
	}
	return r, nil
}

func decodeResponse(fields []qpack.HeaderField) (Response, error) {
	var r Response
	for _, f := range fields {
		if f.Name == ":status" {
			r.Status = f.Value
			continue
		}
		r.Headers = append(r.Headers, f)
	}
	if r.Status == "" {
		return Response{}, newError(ErrMessageError, "missing :status pseudo-header")
	}
	return r, nil
}
