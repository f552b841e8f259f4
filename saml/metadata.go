package saml

import (
	"encoding/base64"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
	dsig "github.com/russellhaering/goxmldsig"

	apierrors "github.com/jrsteele09/go-signin-service/internal/errors"
)

const (
	metadataNamespace = "urn:oasis:names:tc:SAML:2.0:metadata"
	dsigNamespace     = "http://www.w3.org/2000/09/xmldsig#"

	bindingRedirectURN = "urn:oasis:names:tc:SAML:2.0:bindings:HTTP-Redirect"
	bindingPostURN     = "urn:oasis:names:tc:SAML:2.0:bindings:HTTP-POST"
)

// Metadata renders the signed identity provider descriptor for one
// application, advertising the per-application single sign-on endpoints.
func (h *Handshake) Metadata(applicationID string) ([]byte, error) {
	if _, err := h.apps.Get(applicationID); err != nil {
		return nil, errors.Wrap(err, "[Handshake.Metadata] resolve application")
	}
	idp, err := h.idp.Get()
	if err != nil {
		return nil, errors.Wrap(err, "[Handshake.Metadata] resolve identity provider")
	}
	if idp.EntityID == "" {
		return nil, apierrors.ErrConfigurationIncomplete
	}

	cert, err := parseCertificate(idp.CertificatePEM)
	if err != nil {
		return nil, apierrors.ErrConfigurationIncomplete
	}
	keyStore, err := signingKeyStore(idp)
	if err != nil {
		return nil, apierrors.ErrConfigurationIncomplete
	}

	descriptor := etree.NewElement("md:EntityDescriptor")
	descriptor.CreateAttr("xmlns:md", metadataNamespace)
	descriptor.CreateAttr("ID", newXMLID())
	descriptor.CreateAttr("entityID", idp.EntityID)

	idpDescriptor := descriptor.CreateElement("md:IDPSSODescriptor")
	idpDescriptor.CreateAttr("WantAuthnRequestsSigned", "true")
	idpDescriptor.CreateAttr("protocolSupportEnumeration", protocolNamespace)

	keyDescriptor := idpDescriptor.CreateElement("md:KeyDescriptor")
	keyDescriptor.CreateAttr("use", "signing")
	keyInfo := keyDescriptor.CreateElement("ds:KeyInfo")
	keyInfo.CreateAttr("xmlns:ds", dsigNamespace)
	x509Data := keyInfo.CreateElement("ds:X509Data")
	x509Certificate := x509Data.CreateElement("ds:X509Certificate")
	x509Certificate.SetText(base64.StdEncoding.EncodeToString(cert.Raw))

	nameIDFormat := idpDescriptor.CreateElement("md:NameIDFormat")
	nameIDFormat.SetText(nameIDFormatEmail)

	authnLocation := h.endpoint + "/saml/" + applicationID + "/authn"
	for _, binding := range []string{bindingRedirectURN, bindingPostURN} {
		sso := idpDescriptor.CreateElement("md:SingleSignOnService")
		sso.CreateAttr("Binding", binding)
		sso.CreateAttr("Location", authnLocation)
	}

	signed, err := dsig.NewDefaultSigningContext(keyStore).SignEnveloped(descriptor)
	if err != nil {
		return nil, errors.Wrap(err, "[Handshake.Metadata] sign descriptor")
	}

	doc := etree.NewDocument()
	doc.SetRoot(signed)
	raw, err := doc.WriteToBytes()
	if err != nil {
		return nil, errors.Wrap(err, "[Handshake.Metadata] serialize descriptor")
	}
	return raw, nil
}
