package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/jabber-tools/nlptestrunner/internal/nlperr"
)

const (
	dialogflowScope    = "https://www.googleapis.com/auth/cloud-platform"
	dialogflowAudience = "https://www.googleapis.com/oauth2/v4/token"
	dialogflowGrant    = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// Dialogflow drives Google Dialogflow's detectIntent endpoint directly. It
// mints a service-account JWT once at construction, exchanges it for an
// OAuth bearer, and reuses that bearer for every turn of the executor that
// owns it.
type Dialogflow struct {
	projectID  string
	token      string
	httpClient *http.Client
}

// NewDialogflow mints credentials eagerly: sign the service-account JWT,
// exchange it for an OAuth bearer, and record the project id. Any failure
// here aborts suite construction before a worker ever starts.
func NewDialogflow(credentialsFile, httpProxy string) (*Dialogflow, error) {
	sa, err := LoadServiceAccount(credentialsFile)
	if err != nil {
		return nil, err
	}

	assertion, err := signServiceAccountJWT(sa)
	if err != nil {
		return nil, err
	}

	client := newHTTPClient(httpProxy)
	token, err := exchangeJWTForToken(client, sa.TokenURI, assertion)
	if err != nil {
		return nil, err
	}

	return &Dialogflow{projectID: sa.ProjectID, token: token, httpClient: client}, nil
}

// signServiceAccountJWT builds and RS256-signs the claim set described in
// the adapter's construction steps.
func signServiceAccountJWT(sa *ServiceAccount) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(sa.PrivateKey))
	if err != nil {
		return "", nlperr.Wrap(nlperr.KindJWTCreation, "failed to parse service account private key", err)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    sa.ClientEmail,
		Audience:  jwt.ClaimStrings{dialogflowAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	scoped := struct {
		jwt.RegisteredClaims
		Scope string `json:"scope"`
	}{RegisteredClaims: claims, Scope: dialogflowScope}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, scoped)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", nlperr.Wrap(nlperr.KindJWTCreation, "failed to sign service account JWT", err)
	}
	return signed, nil
}

// exchangeJWTForToken performs the JWT-bearer grant against the token
// endpoint, form-encoded per the design.
func exchangeJWTForToken(client *http.Client, tokenURI, assertion string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", dialogflowGrant)
	form.Set("assertion", assertion)

	req, err := http.NewRequest(http.MethodPost, tokenURI, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", nlperr.Wrap(nlperr.KindGDFTokenRetrieval, "failed to build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", nlperr.Wrap(nlperr.KindGDFTokenRetrieval, "token endpoint request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nlperr.Wrap(nlperr.KindGDFTokenRetrieval, "failed to read token response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", nlperr.Newf(nlperr.KindGDFTokenRetrieval, "token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nlperr.Wrap(nlperr.KindGDFTokenRetrieval, "failed to parse token response", err)
	}
	if payload.AccessToken == "" {
		return "", nlperr.New(nlperr.KindGDFTokenRetrieval, "token response missing access_token")
	}
	return payload.AccessToken, nil
}

// Invoke sends one detectIntent request for the given conversation.
func (d *Dialogflow) Invoke(ctx context.Context, utterance, convID, lang string) (string, string, error) {
	reqBody := map[string]any{
		"queryInput": map[string]any{
			"text": map[string]any{
				"text":         utterance,
				"languageCode": lang,
			},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", "", nlperr.Wrap(nlperr.KindJSONSerDeser, "failed to encode detectIntent request", err)
	}

	endpoint := fmt.Sprintf("https://dialogflow.googleapis.com/v2/projects/%s/agent/sessions/%s:detectIntent", d.projectID, convID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", "", nlperr.Wrap(nlperr.KindGDFInvocation, "failed to build detectIntent request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.token)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", "", nlperr.Wrap(nlperr.KindHTTPInvocation, "detectIntent request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", nlperr.Wrap(nlperr.KindHTTPInvocation, "failed to read detectIntent response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", nlperr.Newf(nlperr.KindGDFInvocation, "detectIntent returned %d: %s", resp.StatusCode, string(body))
	}

	canonical, intentName, err := canonicalizeAndExtractIntent(body, "queryResult", "intent", "displayName")
	if err != nil {
		return "", "", err
	}
	return canonical, intentName, nil
}
