// Package graph implements a Provider that sends serialized emails via the
// Microsoft Graph API.
package graph

import (
	"encoding/base64"
	"strings"

	"github.com/shineum/eml-studio/internal/email"
	"github.com/shineum/eml-studio/internal/provider"
)

// graphErrorResponse represents an error response from the Graph API.
type graphErrorResponse struct {
	Error graphError `json:"error"`
}

// graphError represents the error detail in a Graph API error response.
type graphError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// buildMIMEPayload returns the sendMail request body: the document in base64.
// Graph reads blind copies from a Bcc header in the MIME content, so one is
// prepended when the export has any. The header is rebuilt from the parsed
// addresses; the stored document itself never carries Bcc.
func buildMIMEPayload(exp *email.Export) ([]byte, error) {
	bcc, err := provider.BccOf(exp)
	if err != nil {
		return nil, err
	}

	doc := exp.Data
	if len(bcc) > 0 {
		header := "Bcc: " + strings.Join(bcc, ", ") + "\r\n"
		doc = append([]byte(header), doc...)
	}
	payload := make([]byte, base64.StdEncoding.EncodedLen(len(doc)))
	base64.StdEncoding.Encode(payload, doc)
	return payload, nil
}
