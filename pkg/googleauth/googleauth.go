// Package googleauth resolves process-wide Google Generative AI credentials.
//
// The preferred path is a direct API key. The deprecated combined field
// GOOGLE_APPLICATION_CREDENTIALS_CONTENT is still honored for backward
// compatibility and may hold base64-encoded service-account JSON, a path to a
// service-account file, or the JSON document itself.
package googleauth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"strings"

	"github.com/stackmesh/template-agent/pkg/config"
	"github.com/stackmesh/template-agent/pkg/logger"
)

const (
	// EnvAPIKey is the variable the model client reads for key auth.
	EnvAPIKey = "GOOGLE_API_KEY"
	// EnvCredentialsFile is the variable the model client reads for
	// service-account auth.
	EnvCredentialsFile = "GOOGLE_APPLICATION_CREDENTIALS"

	// base64 of `{\n `, the opening bytes of every base64-encoded
	// service-account document.
	base64JSONPrefix = "ewog"
)

// Initialize establishes Google Generative AI credentials for the process.
// It never fails loudly: decode and parse problems are logged and the
// process starts without credentials, deferring any authentication failure
// to the first model call.
func Initialize(ctx context.Context, cfg *config.Config) {
	log := logger.FromContext(ctx)

	if cfg.Google.APIKey != "" {
		os.Setenv(EnvAPIKey, cfg.Google.APIKey)
		log.Info("Initialized Google Generative AI with API key")
		return
	}

	content := cfg.Google.CredentialsContent
	if content == "" {
		log.Warn("No Google credentials configured; set GOOGLE_API_KEY to authenticate with Google Generative AI")
		return
	}

	log.Warn("Using deprecated GOOGLE_APPLICATION_CREDENTIALS_CONTENT; migrate to GOOGLE_API_KEY")

	var credentialsFile string
	switch {
	case strings.HasPrefix(content, base64JSONPrefix):
		credentialsJSON, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			log.Error("Failed to decode base64 credentials", "error", err)
			return
		}
		if !json.Valid(credentialsJSON) {
			log.Error("Invalid JSON in base64 credentials")
			return
		}
		credentialsFile, err = writeCredentialsFile(credentialsJSON)
		if err != nil {
			log.Error("Failed to write credentials file", "error", err)
			return
		}
		log.Info("Initialized Google Generative AI with base64-encoded service account credentials")

	case fileExists(content):
		credentialsFile = content
		log.Info("Initialized Google Generative AI with service account file", "file", credentialsFile)

	case strings.HasPrefix(strings.TrimSpace(content), "{"):
		credentialsJSON := strings.TrimSpace(content)
		if !json.Valid([]byte(credentialsJSON)) {
			log.Error("Invalid JSON in direct credentials")
			return
		}
		var err error
		credentialsFile, err = writeCredentialsFile([]byte(credentialsJSON))
		if err != nil {
			log.Error("Failed to write credentials file", "error", err)
			return
		}
		log.Info("Initialized Google Generative AI with direct JSON service account credentials")

	default:
		log.Warn("Google service account credentials not found or in an unrecognized format")
		return
	}

	os.Setenv(EnvCredentialsFile, credentialsFile)
	log.Debug("Set GOOGLE_APPLICATION_CREDENTIALS", "file", credentialsFile)
}

// writeCredentialsFile materializes the credential document as a temporary
// file consumed by the model client library. The file lives for the rest of
// the process; it is deliberately not removed so the client can re-read it at
// any time.
func writeCredentialsFile(credentialsJSON []byte) (string, error) {
	f, err := os.CreateTemp("", "google-credentials-*.json")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(credentialsJSON); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
