package saml_test

import (
	"bytes"
	"compress/flate"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
	dsig "github.com/russellhaering/goxmldsig"
	"github.com/stretchr/testify/require"

	apierrors "github.com/jrsteele09/go-signin-service/internal/errors"
	"github.com/jrsteele09/go-signin-service/saml"
	"github.com/jrsteele09/go-signin-service/saml/repofake"
)

const (
	testEndpoint    = "https://signin.example.com"
	testAppID       = "app-1"
	testSPEntityID  = "https://sp.example.com/metadata"
	testACSURL      = "https://sp.example.com/acs"
	testIdPEntityID = "https://signin.example.com/saml"
	testRelayState  = "relay-1"
	sigAlgRSASHA256 = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
)

// keyMaterial is a generated signing identity for one side of the handshake.
type keyMaterial struct {
	key     *rsa.PrivateKey
	cert    *x509.Certificate
	certPEM string
	keyPEM  string
}

func generateKeyMaterial(t *testing.T, commonName string) *keyMaterial {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return &keyMaterial{
		key:     key,
		cert:    cert,
		certPEM: string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})),
		keyPEM:  string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})),
	}
}

// fakeExchanger satisfies ClaimsExchanger without a live OIDC issuer.
type fakeExchanger struct {
	claims *saml.Claims
	err    error

	gotCode        string
	gotSecret      string
	gotRedirectURI string
}

func (fe *fakeExchanger) Exchange(_ context.Context, _, clientSecret, code, redirectURI string) (*saml.Claims, error) {
	fe.gotCode = code
	fe.gotSecret = clientSecret
	fe.gotRedirectURI = redirectURI
	if fe.err != nil {
		return nil, fe.err
	}
	return fe.claims, nil
}

// testFixture holds all test dependencies
type testFixture struct {
	apps      *repofake.FakeApplicationRepo
	sessions  *saml.InMemorySessionRepo
	exchanger *fakeExchanger
	handshake *saml.Handshake
	sp        *keyMaterial
	idp       *keyMaterial
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	sp := generateKeyMaterial(t, "sp.example.com")
	idp := generateKeyMaterial(t, "signin.example.com")

	apps := repofake.NewFakeApplicationRepo()
	apps.Upsert(&saml.Application{
		ID:               testAppID,
		Name:             "Test SP",
		EntityID:         testSPEntityID,
		ACSURL:           testACSURL,
		CertificatePEM:   sp.certPEM,
		OIDCClientSecret: "client-secret-1",
		RedirectURI:      testEndpoint + "/saml/" + testAppID + "/callback",
	})

	sessions := saml.NewInMemorySessionRepo()
	exchanger := &fakeExchanger{claims: &saml.Claims{
		Subject: "user-1",
		Email:   "jane.doe@example.com",
		Name:    "Jane Doe",
	}}

	handshake, err := saml.NewHandshake(
		apps,
		sessions,
		saml.StaticIdPConfig{IdP: saml.IdentityProvider{
			EntityID:       testIdPEntityID,
			CertificatePEM: idp.certPEM,
			PrivateKeyPEM:  idp.keyPEM,
		}},
		exchanger,
		testEndpoint,
		zerolog.Nop(),
	)
	require.NoError(t, err)

	return &testFixture{
		apps:      apps,
		sessions:  sessions,
		exchanger: exchanger,
		handshake: handshake,
		sp:        sp,
		idp:       idp,
	}
}

func authnRequestXML(issuer string) string {
	return fmt.Sprintf(`<samlp:AuthnRequest xmlns:samlp="urn:oasis:names:tc:SAML:2.0:protocol" xmlns:saml="urn:oasis:names:tc:SAML:2.0:assertion" ID="_req-1" Version="2.0" IssueInstant="2026-03-14T09:00:00Z" Destination="%s/saml/%s/authn" AssertionConsumerServiceURL="%s"><saml:Issuer>%s</saml:Issuer></samlp:AuthnRequest>`,
		testEndpoint, testAppID, testACSURL, issuer)
}

// redirectInput deflates, encodes and signs an authentication request the way
// a service provider using the redirect binding would.
func redirectInput(t *testing.T, signer *rsa.PrivateKey, requestXML, relayState string) saml.AuthnRequestInput {
	t.Helper()

	var deflated bytes.Buffer
	fw, err := flate.NewWriter(&deflated, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = fw.Write([]byte(requestXML))
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	encoded := base64.StdEncoding.EncodeToString(deflated.Bytes())

	signedQuery := "SAMLRequest=" + url.QueryEscape(encoded)
	if relayState != "" {
		signedQuery += "&RelayState=" + url.QueryEscape(relayState)
	}
	signedQuery += "&SigAlg=" + url.QueryEscape(sigAlgRSASHA256)

	digest := sha256.Sum256([]byte(signedQuery))
	signature, err := rsa.SignPKCS1v15(rand.Reader, signer, crypto.SHA256, digest[:])
	require.NoError(t, err)
	signatureB64 := base64.StdEncoding.EncodeToString(signature)

	return saml.AuthnRequestInput{
		Binding:     saml.BindingRedirect,
		SAMLRequest: encoded,
		RelayState:  relayState,
		SigAlg:      sigAlgRSASHA256,
		Signature:   signatureB64,
		RawQuery:    signedQuery + "&Signature=" + url.QueryEscape(signatureB64),
	}
}

// postInput signs the request document itself, the way a service provider
// using the form-POST binding would.
func postInput(t *testing.T, sp *keyMaterial, requestXML, relayState string) saml.AuthnRequestInput {
	t.Helper()

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(requestXML))

	signingContext := dsig.NewDefaultSigningContext(&dsig.TLSCertKeyStore{
		PrivateKey:  sp.key,
		Certificate: [][]byte{sp.cert.Raw},
	})
	signed, err := signingContext.SignEnveloped(doc.Root())
	require.NoError(t, err)

	signedDoc := etree.NewDocument()
	signedDoc.SetRoot(signed)
	raw, err := signedDoc.WriteToBytes()
	require.NoError(t, err)

	return saml.AuthnRequestInput{
		Binding:     saml.BindingPost,
		SAMLRequest: base64.StdEncoding.EncodeToString(raw),
		RelayState:  relayState,
	}
}

func TestHandleAuthnRequest_RedirectBinding(t *testing.T) {
	f := setupTestFixture(t)

	in := redirectInput(t, f.sp.key, authnRequestXML(testSPEntityID), testRelayState)
	result, err := f.handshake.HandleAuthnRequest(context.Background(), testAppID, in)
	require.NoError(t, err)
	require.NotEmpty(t, result.SessionID)

	redirectTo, err := url.Parse(result.RedirectTo)
	require.NoError(t, err)
	require.Equal(t, "/oauth2/authorize", redirectTo.Path)
	require.Equal(t, testAppID, redirectTo.Query().Get("client_id"))
	require.Equal(t, "code", redirectTo.Query().Get("response_type"))
	require.Equal(t, testEndpoint+"/saml/"+testAppID+"/callback", redirectTo.Query().Get("redirect_uri"))

	session, err := f.sessions.Get(result.SessionID)
	require.NoError(t, err)
	require.Equal(t, testAppID, session.ApplicationID)
	require.Equal(t, "_req-1", session.RequestID)
	require.Equal(t, testRelayState, session.RelayState)
	require.Equal(t, redirectTo.Query().Get("state"), session.State)
	require.Equal(t, saml.SessionLifetime, session.ExpiresAt.Sub(session.CreatedAt))
}

func TestHandleAuthnRequest_PostBinding(t *testing.T) {
	f := setupTestFixture(t)

	in := postInput(t, f.sp, authnRequestXML(testSPEntityID), testRelayState)
	result, err := f.handshake.HandleAuthnRequest(context.Background(), testAppID, in)
	require.NoError(t, err)

	session, err := f.sessions.Get(result.SessionID)
	require.NoError(t, err)
	require.Equal(t, "_req-1", session.RequestID)
	require.Equal(t, string(saml.BindingPost), session.Binding)
}

func TestHandleAuthnRequest_TamperedSignature(t *testing.T) {
	f := setupTestFixture(t)

	in := redirectInput(t, f.sp.key, authnRequestXML(testSPEntityID), testRelayState)
	in.RawQuery = strings.Replace(in.RawQuery, "RelayState="+testRelayState, "RelayState=tampered", 1)
	in.RelayState = "tampered"

	_, err := f.handshake.HandleAuthnRequest(context.Background(), testAppID, in)
	require.ErrorIs(t, err, apierrors.ErrInvalidRequest)
}

func TestHandleAuthnRequest_WrongSignerKey(t *testing.T) {
	f := setupTestFixture(t)
	rogue := generateKeyMaterial(t, "rogue.example.com")

	in := redirectInput(t, rogue.key, authnRequestXML(testSPEntityID), testRelayState)
	_, err := f.handshake.HandleAuthnRequest(context.Background(), testAppID, in)
	require.ErrorIs(t, err, apierrors.ErrInvalidRequest)
}

func TestHandleAuthnRequest_IssuerMismatchIsUniform(t *testing.T) {
	f := setupTestFixture(t)

	in := redirectInput(t, f.sp.key, authnRequestXML("https://someone-else.example.com"), testRelayState)
	_, err := f.handshake.HandleAuthnRequest(context.Background(), testAppID, in)

	// The client sees the same error as for any other invalid request
	require.ErrorIs(t, err, apierrors.ErrInvalidRequest)
}

func TestHandleAuthnRequest_ConfigurationIncomplete(t *testing.T) {
	f := setupTestFixture(t)
	f.apps.Upsert(&saml.Application{
		ID:             testAppID,
		EntityID:       testSPEntityID,
		CertificatePEM: f.sp.certPEM,
		// ACSURL missing
	})

	in := redirectInput(t, f.sp.key, authnRequestXML(testSPEntityID), testRelayState)
	_, err := f.handshake.HandleAuthnRequest(context.Background(), testAppID, in)
	require.ErrorIs(t, err, apierrors.ErrConfigurationIncomplete)
}

// startHandshake runs a valid authentication request and returns the pending
// session.
func (f *testFixture) startHandshake(t *testing.T) *saml.Session {
	t.Helper()

	in := redirectInput(t, f.sp.key, authnRequestXML(testSPEntityID), testRelayState)
	result, err := f.handshake.HandleAuthnRequest(context.Background(), testAppID, in)
	require.NoError(t, err)

	session, err := f.sessions.Get(result.SessionID)
	require.NoError(t, err)
	return session
}

func TestHandleCallback_DeliversSignedResponse(t *testing.T) {
	f := setupTestFixture(t)
	session := f.startHandshake(t)

	result, err := f.handshake.HandleCallback(context.Background(), testAppID, saml.CallbackInput{
		SessionID: session.ID,
		Code:      "auth-code-1",
		State:     session.State,
	})
	require.NoError(t, err)
	require.Equal(t, testACSURL, result.Destination)
	require.Equal(t, testRelayState, result.RelayState)
	require.Equal(t, "auth-code-1", f.exchanger.gotCode)
	require.Equal(t, "client-secret-1", f.exchanger.gotSecret)
	require.Equal(t, testEndpoint+"/saml/"+testAppID+"/callback", f.exchanger.gotRedirectURI)

	raw, err := base64.StdEncoding.DecodeString(result.SAMLResponse)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(raw))
	response := doc.Root()
	require.Equal(t, "Response", response.Tag)
	require.Equal(t, "_req-1", response.SelectAttrValue("InResponseTo", ""))
	require.Equal(t, testACSURL, response.SelectAttrValue("Destination", ""))

	// The response is signed by the identity provider key
	validationContext := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{
		Roots: []*x509.Certificate{f.idp.cert},
	})
	_, err = validationContext.Validate(response)
	require.NoError(t, err)

	audience := response.FindElement("//AudienceRestriction/Audience")
	require.NotNil(t, audience)
	require.Equal(t, testSPEntityID, audience.Text())

	nameID := response.FindElement("//Subject/NameID")
	require.NotNil(t, nameID)
	require.Equal(t, "jane.doe@example.com", nameID.Text())

	// The correlation session is consumed
	_, err = f.sessions.Get(session.ID)
	require.ErrorIs(t, err, saml.ErrSessionNotFound)
}

func TestHandleCallback_ErrorParam(t *testing.T) {
	f := setupTestFixture(t)
	session := f.startHandshake(t)

	_, err := f.handshake.HandleCallback(context.Background(), testAppID, saml.CallbackInput{
		SessionID:  session.ID,
		State:      session.State,
		ErrorParam: "access_denied",
	})
	require.ErrorIs(t, err, apierrors.ErrInvalidRequest)
}

func TestHandleCallback_UnknownSession(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.handshake.HandleCallback(context.Background(), testAppID, saml.CallbackInput{
		SessionID: "missing",
		Code:      "auth-code-1",
		State:     "any",
	})
	require.ErrorIs(t, err, apierrors.ErrSessionNotFound)
}

func TestHandleCallback_StateMismatch(t *testing.T) {
	f := setupTestFixture(t)
	session := f.startHandshake(t)

	_, err := f.handshake.HandleCallback(context.Background(), testAppID, saml.CallbackInput{
		SessionID: session.ID,
		Code:      "auth-code-1",
		State:     "wrong-state",
	})
	require.ErrorIs(t, err, apierrors.ErrInvalidRequest)
}

func TestHandleCallback_RedirectURIMismatch(t *testing.T) {
	f := setupTestFixture(t)
	session := f.startHandshake(t)

	app, err := f.apps.Get(testAppID)
	require.NoError(t, err)
	app.RedirectURI = "https://sp.example.com/other-callback"
	f.apps.Upsert(app)

	_, err = f.handshake.HandleCallback(context.Background(), testAppID, saml.CallbackInput{
		SessionID: session.ID,
		Code:      "auth-code-1",
		State:     session.State,
	})
	require.ErrorIs(t, err, apierrors.ErrInvalidRedirectURI)
}

func TestMetadata_SignedDescriptor(t *testing.T) {
	f := setupTestFixture(t)

	raw, err := f.handshake.Metadata(testAppID)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(raw))
	descriptor := doc.Root()
	require.Equal(t, "EntityDescriptor", descriptor.Tag)
	require.Equal(t, testIdPEntityID, descriptor.SelectAttrValue("entityID", ""))

	ssoServices := descriptor.FindElements("//SingleSignOnService")
	require.Len(t, ssoServices, 2)
	for _, sso := range ssoServices {
		require.Equal(t, testEndpoint+"/saml/"+testAppID+"/authn", sso.SelectAttrValue("Location", ""))
	}

	validationContext := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{
		Roots: []*x509.Certificate{f.idp.cert},
	})
	_, err = validationContext.Validate(descriptor)
	require.NoError(t, err)
}
