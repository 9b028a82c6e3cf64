package fireauth

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"strings"

	"google.golang.org/api/option"

	"github.com/vaikhari/vaikhari/backend/api/internal/config"
	"github.com/vaikhari/vaikhari/backend/api/pkg/logger"
)

// credential is the outcome of resolving one of the configured credential
// sources: SDK client options plus the project id parsed out of the
// service-account material.
type credential struct {
	opts      []option.ClientOption
	projectID string
	source    string
}

// resolveCredentials picks the first usable credential source, in order:
// base64 service-account JSON, credentials file path, inline JSON, discrete
// project/email/key fields. A malformed source logs a warning and falls
// through to the next one; when nothing matches the SDK runs on Application
// Default Credentials.
func resolveCredentials(cfg config.FirebaseConfig) credential {
	if cfg.ServiceAccountKeyBase64 != "" {
		raw, err := base64.StdEncoding.DecodeString(cfg.ServiceAccountKeyBase64)
		if err != nil {
			logger.Warnf("fireauth: FIREBASE_SERVICE_ACCOUNT_KEY_BASE64 is not valid base64: %v", err)
		} else {
			return credential{
				opts:      []option.ClientOption{option.WithCredentialsJSON(raw)},
				projectID: projectIDFromJSON(raw),
				source:    "base64",
			}
		}
	}

	if cfg.CredentialsFile != "" {
		raw, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			logger.Warnf("fireauth: cannot read FIREBASE_CREDENTIALS_FILE %q: %v", cfg.CredentialsFile, err)
		} else {
			return credential{
				opts:      []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)},
				projectID: projectIDFromJSON(raw),
				source:    "file",
			}
		}
	}

	if cfg.ServiceAccountKey != "" {
		raw := strings.TrimSpace(cfg.ServiceAccountKey)
		// some deploy tooling wraps the JSON value in an extra pair of quotes
		raw = strings.TrimPrefix(raw, `'`)
		raw = strings.TrimSuffix(raw, `'`)
		if strings.HasPrefix(raw, `"{`) && strings.HasSuffix(raw, `}"`) {
			raw = raw[1 : len(raw)-1]
		}
		if !json.Valid([]byte(raw)) {
			logger.Warnf("fireauth: FIREBASE_SERVICE_ACCOUNT_KEY is not valid JSON")
		} else {
			return credential{
				opts:      []option.ClientOption{option.WithCredentialsJSON([]byte(raw))},
				projectID: projectIDFromJSON([]byte(raw)),
				source:    "inline",
			}
		}
	}

	if cfg.ProjectID != "" && cfg.ClientEmail != "" && cfg.PrivateKey != "" {
		sa := map[string]string{
			"type":         "service_account",
			"project_id":   cfg.ProjectID,
			"client_email": cfg.ClientEmail,
			"private_key":  strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n"),
		}
		raw, err := json.Marshal(sa)
		if err != nil {
			logger.Warnf("fireauth: cannot assemble discrete credential fields: %v", err)
		} else {
			return credential{
				opts:      []option.ClientOption{option.WithCredentialsJSON(raw)},
				projectID: cfg.ProjectID,
				source:    "fields",
			}
		}
	}

	logger.Warn("fireauth: no Firebase credentials configured; falling back to application default credentials (token verification will fail without them)")
	return credential{projectID: cfg.ProjectID, source: "default"}
}

func projectIDFromJSON(raw []byte) string {
	var sa struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(raw, &sa); err != nil {
		return ""
	}
	return sa.ProjectID
}
