package saml

import (
	"bytes"
	"compress/flate"
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
	saml2 "github.com/russellhaering/gosaml2"
	dsig "github.com/russellhaering/goxmldsig"
)

// Binding names how the authentication request reached us.
type Binding string

const (
	BindingRedirect Binding = "redirect"
	BindingPost     Binding = "post"
)

const (
	sigAlgRSASHA256 = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	sigAlgRSASHA1   = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"

	// Inflated requests larger than this are rejected outright.
	maxRequestSize = 1 << 20
)

// parseRedirectBinding verifies and decodes a redirect-encoded
// authentication request. The signature covers the raw query segments as
// transmitted, so verification happens before any decoding.
func parseRedirectBinding(cert *x509.Certificate, samlRequest, sigAlg, signature, rawQuery string) (*saml2.AuthNRequest, error) {
	if samlRequest == "" || sigAlg == "" || signature == "" {
		return nil, errors.New("missing redirect binding parameters")
	}

	if err := verifyRedirectSignature(cert, sigAlg, signature, rawQuery); err != nil {
		return nil, err
	}

	decoded, err := base64.StdEncoding.DecodeString(samlRequest)
	if err != nil {
		return nil, errors.Wrap(err, "base64 decode")
	}

	inflated, err := io.ReadAll(io.LimitReader(flate.NewReader(bytes.NewReader(decoded)), maxRequestSize))
	if err != nil {
		return nil, errors.Wrap(err, "inflate request")
	}

	var request saml2.AuthNRequest
	if err := xml.Unmarshal(inflated, &request); err != nil {
		return nil, errors.Wrap(err, "unmarshal request")
	}
	return &request, nil
}

// verifyRedirectSignature checks the query signature over the raw
// reconstructed signed string: the SAMLRequest, RelayState and SigAlg query
// segments exactly as they appeared on the wire, in that order.
func verifyRedirectSignature(cert *x509.Certificate, sigAlg, signature, rawQuery string) error {
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return errors.New("application certificate is not RSA")
	}

	var hash crypto.Hash
	switch sigAlg {
	case sigAlgRSASHA256:
		hash = crypto.SHA256
	case sigAlgRSASHA1:
		hash = crypto.SHA1
	default:
		return errors.Errorf("unsupported signature algorithm %q", sigAlg)
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return errors.Wrap(err, "base64 decode signature")
	}

	hasher := hash.New()
	hasher.Write([]byte(signedQueryString(rawQuery)))
	if err := rsa.VerifyPKCS1v15(pub, hash, hasher.Sum(nil), sig); err != nil {
		return errors.Wrap(err, "verify query signature")
	}
	return nil
}

func signedQueryString(rawQuery string) string {
	var parts []string
	for _, name := range []string{"SAMLRequest", "RelayState", "SigAlg"} {
		if seg, ok := rawQuerySegment(rawQuery, name); ok {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "&")
}

// rawQuerySegment returns the still-encoded "name=value" segment, avoiding
// any re-encoding drift between what was signed and what we verify.
func rawQuerySegment(rawQuery, name string) (string, bool) {
	for _, seg := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(seg, name+"=") {
			return seg, true
		}
	}
	return "", false
}

// parsePostBinding decodes a form-POST authentication request and validates
// its enveloped XML signature against the application certificate.
func parsePostBinding(cert *x509.Certificate, samlRequest string) (*saml2.AuthNRequest, error) {
	if samlRequest == "" {
		return nil, errors.New("missing SAMLRequest")
	}

	decoded, err := base64.StdEncoding.DecodeString(samlRequest)
	if err != nil {
		return nil, errors.Wrap(err, "base64 decode")
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(decoded); err != nil {
		return nil, errors.Wrap(err, "parse request XML")
	}
	if doc.Root() == nil {
		return nil, errors.New("empty request document")
	}

	certStore := &dsig.MemoryX509CertificateStore{
		Roots: []*x509.Certificate{cert},
	}
	validated, err := dsig.NewDefaultValidationContext(certStore).Validate(doc.Root())
	if err != nil {
		return nil, errors.Wrap(err, "validate request signature")
	}

	validatedDoc := etree.NewDocument()
	validatedDoc.SetRoot(validated)
	raw, err := validatedDoc.WriteToBytes()
	if err != nil {
		return nil, errors.Wrap(err, "serialize validated request")
	}

	var request saml2.AuthNRequest
	if err := xml.Unmarshal(raw, &request); err != nil {
		return nil, errors.Wrap(err, "unmarshal request")
	}
	return &request, nil
}
