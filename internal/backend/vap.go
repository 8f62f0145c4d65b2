package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/jabber-tools/nlptestrunner/internal/nlperr"
)

// VAPConfig carries the enterprise gateway's construction parameters, read
// out of the suite's config section by the orchestrator.
type VAPConfig struct {
	BaseURL             string
	AccessToken         string
	ServiceAccountEmail string
	ServiceAccountPass  string
	ChannelID           string
	Country             string
	ContextExtra        string
	HTTPProxy           string
}

// VAP drives the DHL enterprise conversational gateway. Unlike Dialogflow it
// carries two independent credentials: a static access token sent in every
// turn's header, and a service-account bearer obtained once at login.
type VAP struct {
	baseURL      string
	accessToken  string
	channelID    string
	country      string
	contextExtra string
	bearer       string
	httpClient   *http.Client
}

// NewVAP logs in with the service-account email/password and records the
// bearer returned for subsequent turns.
func NewVAP(cfg VAPConfig) (*VAP, error) {
	client := newHTTPClient(cfg.HTTPProxy)

	bearer, err := vapLogin(client, cfg.BaseURL, cfg.ServiceAccountEmail, cfg.ServiceAccountPass)
	if err != nil {
		return nil, err
	}

	return &VAP{
		baseURL:      cfg.BaseURL,
		accessToken:  cfg.AccessToken,
		channelID:    cfg.ChannelID,
		country:      cfg.Country,
		contextExtra: cfg.ContextExtra,
		bearer:       bearer,
		httpClient:   client,
	}, nil
}

func vapLogin(client *http.Client, baseURL, email, password string) (string, error) {
	reqBody := map[string]any{
		"strategy": "local",
		"email":    email,
		"password": password,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", nlperr.Wrap(nlperr.KindJSONSerDeser, "failed to encode VAP login request", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/vapapi/authentication/v1", bytes.NewReader(payload))
	if err != nil {
		return "", nlperr.Wrap(nlperr.KindHTTPInvocation, "failed to build VAP login request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", nlperr.Wrap(nlperr.KindHTTPInvocation, "VAP login request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nlperr.Wrap(nlperr.KindHTTPInvocation, "failed to read VAP login response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", nlperr.Newf(nlperr.KindHTTPInvocation, "VAP login returned %d: %s", resp.StatusCode, string(body))
	}

	var payloadResp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(body, &payloadResp); err != nil {
		return "", nlperr.Wrap(nlperr.KindJSONParsing, "failed to parse VAP login response", err)
	}
	if payloadResp.AccessToken == "" {
		return "", nlperr.New(nlperr.KindHTTPInvocation, "VAP login response missing accessToken")
	}
	return payloadResp.AccessToken, nil
}

// Invoke sends one generic-channel message for the given conversation.
func (v *VAP) Invoke(ctx context.Context, utterance, convID, lang string) (string, string, error) {
	vaContext := map[string]any{"lang": lang}
	if v.country != "" {
		vaContext["country"] = v.country
	}
	if v.contextExtra != "" {
		vaContext["contextExtra"] = v.contextExtra
	}

	reqBody := map[string]any{
		"headers": map[string]any{
			"at":           v.accessToken,
			"content-type": "application/json",
		},
		"body": map[string]any{
			"text":   utterance,
			"convId": convID,
		},
		"vaContext": vaContext,
	}
	if v.channelID != "" {
		reqBody["channelId"] = v.channelID
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", "", nlperr.Wrap(nlperr.KindJSONSerDeser, "failed to encode VAP turn request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/vapapi/channels/generic/v1", bytes.NewReader(payload))
	if err != nil {
		return "", "", nlperr.Wrap(nlperr.KindHTTPInvocation, "failed to build VAP turn request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", v.bearer)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", "", nlperr.Wrap(nlperr.KindHTTPInvocation, "VAP turn request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", nlperr.Wrap(nlperr.KindHTTPInvocation, "failed to read VAP turn response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", nlperr.Newf(nlperr.KindHTTPInvocation, "VAP turn returned %d: %s", resp.StatusCode, string(body))
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", "", nlperr.Wrap(nlperr.KindJSONParsing, "failed to parse VAP turn response", err)
	}
	scrubVAPContextConfig(doc)

	scrubbed, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", "", nlperr.Wrap(nlperr.KindJSONSerDeser, "failed to canonicalize VAP turn response", err)
	}

	intentName := extractStringPath(doc, []string{"dfResponse", "queryResult", "intent", "displayName"})
	return string(scrubbed), intentName, nil
}
