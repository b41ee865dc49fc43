package sslident

// Descriptor provides key-indexed access to the fields of a decoded
// certificate. Missing keys are not errors; they represent certificate
// fields that are absent.
type Descriptor interface {
	Field(name string) (any, bool)
}

// Certificate is the concrete descriptor shape most callers use. It mirrors
// the decoded form handed over by whichever collaborator performed the TLS
// handshake; no DER or PEM parsing happens in this package.
type Certificate struct {
	Subject    Subject
	Extensions Extensions
}

// Subject holds the certificate subject fields relevant to identity
// matching. An empty CommonName reads the same as an absent one.
type Subject struct {
	CommonName string
}

// Extensions holds the raw subjectAltName extension value: zero or more
// comma-separated entries, each optionally tagged with a type such as
// "DNS:". An empty string reads the same as an absent extension.
type Extensions struct {
	SubjectAltName string
}

// MapCertificate adapts a plain map into a Descriptor, for callers that
// decode certificates into loosely typed structures.
type MapCertificate map[string]any

func (m MapCertificate) Field(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// identity carries the two fields the matcher consults.
type identity struct {
	commonName string
	altNames   string
}

// identityOf extracts the identity fields from any of the accepted
// certificate forms. The second return value reports whether the value is
// an accepted form at all; field content is never a reason to reject.
func identityOf(certificate any) (identity, bool) {
	switch c := certificate.(type) {
	case Certificate:
		return identity{commonName: c.Subject.CommonName, altNames: c.Extensions.SubjectAltName}, true
	case *Certificate:
		if c == nil {
			return identity{}, false
		}
		return identity{commonName: c.Subject.CommonName, altNames: c.Extensions.SubjectAltName}, true
	case MapCertificate:
		return identityFromDescriptor(c), true
	case map[string]any:
		return identityFromDescriptor(MapCertificate(c)), true
	case Descriptor:
		if c == nil {
			return identity{}, false
		}
		return identityFromDescriptor(c), true
	}

	return identity{}, false
}

// identityFromDescriptor reads subject.CN and extensions.subjectAltName out
// of a key-indexed descriptor. Absent, empty, or mistyped fields degrade to
// empty strings; there is no error path here.
func identityFromDescriptor(d Descriptor) identity {
	var id identity

	if subject, ok := d.Field("subject"); ok {
		switch s := subject.(type) {
		case Subject:
			id.commonName = s.CommonName
		default:
			id.commonName = nestedString(s, "CN")
		}
	}

	if extensions, ok := d.Field("extensions"); ok {
		switch e := extensions.(type) {
		case Extensions:
			id.altNames = e.SubjectAltName
		default:
			id.altNames = nestedString(e, "subjectAltName")
		}
	}

	return id
}

// nestedString reads a string value from a map- or Descriptor-shaped inner
// field. Anything else reads as absent.
func nestedString(field any, key string) string {
	var value any
	var ok bool

	switch f := field.(type) {
	case MapCertificate:
		value, ok = f[key]
	case map[string]any:
		value, ok = f[key]
	case map[string]string:
		return f[key]
	case Descriptor:
		value, ok = f.Field(key)
	}
	if !ok {
		return ""
	}

	s, _ := value.(string)
	return s
}
