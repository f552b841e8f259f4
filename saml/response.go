package saml

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	dsig "github.com/russellhaering/goxmldsig"
)

const (
	protocolNamespace  = "urn:oasis:names:tc:SAML:2.0:protocol"
	assertionNamespace = "urn:oasis:names:tc:SAML:2.0:assertion"

	statusSuccess        = "urn:oasis:names:tc:SAML:2.0:status:Success"
	nameIDFormatEmail    = "urn:oasis:names:tc:SAML:1.1:nameid-format:emailAddress"
	confirmationBearer   = "urn:oasis:names:tc:SAML:2.0:cm:bearer"
	authnContextPassword = "urn:oasis:names:tc:SAML:2.0:ac:classes:PasswordProtectedTransport"

	samlTimeFormat = "2006-01-02T15:04:05Z"

	assertionLifetime = 10 * time.Minute
)

// responseInput carries everything needed to mint a signed response for one
// completed handshake.
type responseInput struct {
	IdPEntityID string
	Application *Application
	RequestID   string
	Claims      *Claims
	Now         time.Time
}

// buildSignedResponse assembles the response document, signs it with the
// identity provider key and returns the base64 form-POST encoding.
func buildSignedResponse(keyStore dsig.X509KeyStore, in responseInput) (string, error) {
	now := in.Now.UTC()
	notOnOrAfter := now.Add(assertionLifetime)

	response := etree.NewElement("samlp:Response")
	response.CreateAttr("xmlns:samlp", protocolNamespace)
	response.CreateAttr("xmlns:saml", assertionNamespace)
	response.CreateAttr("ID", newXMLID())
	response.CreateAttr("Version", "2.0")
	response.CreateAttr("IssueInstant", now.Format(samlTimeFormat))
	response.CreateAttr("Destination", in.Application.ACSURL)
	response.CreateAttr("InResponseTo", in.RequestID)

	issuer := response.CreateElement("saml:Issuer")
	issuer.SetText(in.IdPEntityID)

	status := response.CreateElement("samlp:Status")
	statusCode := status.CreateElement("samlp:StatusCode")
	statusCode.CreateAttr("Value", statusSuccess)

	assertion := response.CreateElement("saml:Assertion")
	assertion.CreateAttr("xmlns:saml", assertionNamespace)
	assertion.CreateAttr("ID", newXMLID())
	assertion.CreateAttr("Version", "2.0")
	assertion.CreateAttr("IssueInstant", now.Format(samlTimeFormat))

	assertionIssuer := assertion.CreateElement("saml:Issuer")
	assertionIssuer.SetText(in.IdPEntityID)

	subject := assertion.CreateElement("saml:Subject")
	nameID := subject.CreateElement("saml:NameID")
	nameID.CreateAttr("Format", nameIDFormatEmail)
	nameID.SetText(subjectNameID(in.Claims))

	confirmation := subject.CreateElement("saml:SubjectConfirmation")
	confirmation.CreateAttr("Method", confirmationBearer)
	confirmationData := confirmation.CreateElement("saml:SubjectConfirmationData")
	confirmationData.CreateAttr("InResponseTo", in.RequestID)
	confirmationData.CreateAttr("Recipient", in.Application.ACSURL)
	confirmationData.CreateAttr("NotOnOrAfter", notOnOrAfter.Format(samlTimeFormat))

	conditions := assertion.CreateElement("saml:Conditions")
	conditions.CreateAttr("NotBefore", now.Format(samlTimeFormat))
	conditions.CreateAttr("NotOnOrAfter", notOnOrAfter.Format(samlTimeFormat))
	audienceRestriction := conditions.CreateElement("saml:AudienceRestriction")
	audience := audienceRestriction.CreateElement("saml:Audience")
	audience.SetText(in.Application.EntityID)

	authnStatement := assertion.CreateElement("saml:AuthnStatement")
	authnStatement.CreateAttr("AuthnInstant", now.Format(samlTimeFormat))
	authnStatement.CreateAttr("SessionIndex", newXMLID())
	authnContext := authnStatement.CreateElement("saml:AuthnContext")
	classRef := authnContext.CreateElement("saml:AuthnContextClassRef")
	classRef.SetText(authnContextPassword)

	attributeStatement := assertion.CreateElement("saml:AttributeStatement")
	if in.Claims.Email != "" {
		addAttribute(attributeStatement, "email", in.Claims.Email)
	}
	if in.Claims.Name != "" {
		addAttribute(attributeStatement, "name", in.Claims.Name)
	}

	signed, err := dsig.NewDefaultSigningContext(keyStore).SignEnveloped(response)
	if err != nil {
		return "", errors.Wrap(err, "sign response")
	}

	doc := etree.NewDocument()
	doc.SetRoot(signed)
	raw, err := doc.WriteToBytes()
	if err != nil {
		return "", errors.Wrap(err, "serialize response")
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func subjectNameID(claims *Claims) string {
	if claims.Email != "" {
		return claims.Email
	}
	return claims.Subject
}

func addAttribute(statement *etree.Element, name, value string) {
	attribute := statement.CreateElement("saml:Attribute")
	attribute.CreateAttr("Name", name)
	attribute.CreateAttr("NameFormat", "urn:oasis:names:tc:SAML:2.0:attrname-format:basic")
	attributeValue := attribute.CreateElement("saml:AttributeValue")
	attributeValue.CreateAttr("xmlns:xs", "http://www.w3.org/2001/XMLSchema")
	attributeValue.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	attributeValue.CreateAttr("xsi:type", "xs:string")
	attributeValue.SetText(value)
}

// XML signature references require ids that start with a letter.
func newXMLID() string {
	return "_" + uuid.NewString()
}

var postFormTemplate = template.Must(template.New("samlPostForm").Parse(`<!DOCTYPE html>
<html>
<body onload="document.forms[0].submit()">
<noscript><p>JavaScript is disabled. Click the button to continue.</p></noscript>
<form method="post" action="{{.Destination}}">
<input type="hidden" name="SAMLResponse" value="{{.SAMLResponse}}"/>
{{if .RelayState}}<input type="hidden" name="RelayState" value="{{.RelayState}}"/>{{end}}
<noscript><input type="submit" value="Continue"/></noscript>
</form>
</body>
</html>
`))

// RenderPostForm writes the auto-submitting form that delivers the signed
// response to the service provider's assertion consumer URL.
func RenderPostForm(result *CallbackResult) ([]byte, error) {
	var buf bytes.Buffer
	err := postFormTemplate.Execute(&buf, map[string]string{
		"Destination":  result.Destination,
		"SAMLResponse": result.SAMLResponse,
		"RelayState":   result.RelayState,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[RenderPostForm] execute template")
	}
	return buf.Bytes(), nil
}
