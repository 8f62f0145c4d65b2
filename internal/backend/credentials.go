package backend

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/jabber-tools/nlptestrunner/internal/nlperr"
)

// ServiceAccount is the subset of a Google service-account credential blob
// the Dialogflow variant needs to mint and sign a JWT.
type ServiceAccount struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	ProjectID   string `json:"project_id"`
	TokenURI    string `json:"token_uri"`
}

// LoadServiceAccount reads and parses a service-account JSON credential
// file. PEM line breaks arrive escaped ("\n") in the JSON string; they are
// normalized to real newlines before the caller parses the key.
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nlperr.Wrap(nlperr.KindIO, "failed to read credentials file", err)
	}
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, nlperr.Wrap(nlperr.KindJSONParsing, "failed to parse credentials file", err)
	}
	sa.PrivateKey = strings.ReplaceAll(sa.PrivateKey, `\n`, "\n")
	if sa.TokenURI == "" {
		sa.TokenURI = "https://www.googleapis.com/oauth2/v4/token"
	}
	return &sa, nil
}
