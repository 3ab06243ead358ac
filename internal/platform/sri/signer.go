package sri

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/quipuware/quipu_backend/internal/apperrors"
	"github.com/quipuware/quipu_backend/internal/core/ports/external"
)

// HTTPSigner signs document XML through the external XAdES signing service.
// The signature profile the authority requires is not implementable with
// off-the-shelf Go XML-DSig tooling, so signing stays a separate service.
type HTTPSigner struct {
	httpClient *http.Client
	signURL    string
}

// NewHTTPSigner creates a signer client for the given endpoint.
func NewHTTPSigner(httpClient *http.Client, signURL string) *HTTPSigner {
	return &HTTPSigner{httpClient: httpClient, signURL: signURL}
}

var _ external.Signer = (*HTTPSigner)(nil)

type signRequest struct {
	Certificate string `json:"certificate"` // base64 .p12
	Password    string `json:"password"`
	XML         string `json:"xml"`
}

type signResponse struct {
	SignedXML string `json:"signedXml"`
	Error     string `json:"error,omitempty"`
}

// Sign returns the signed XML. A wrong certificate password surfaces as
// apperrors.ErrWrongCertificatePassword.
func (s *HTTPSigner) Sign(ctx context.Context, certificate []byte, password string, unsignedXML string) (string, error) {
	payload, err := json.Marshal(signRequest{
		Certificate: base64.StdEncoding.EncodeToString(certificate),
		Password:    password,
		XML:         unsignedXML,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrSigning, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.signURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrSigning, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrSigning, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrSigning, err)
	}

	// The signing service answers 401 specifically for a bad .p12 password.
	if resp.StatusCode == http.StatusUnauthorized {
		return "", apperrors.ErrWrongCertificatePassword
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: signer returned HTTP %d: %s", apperrors.ErrSigning, resp.StatusCode, string(body))
	}

	var parsed signResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrSigning, err)
	}
	if parsed.SignedXML == "" {
		return "", fmt.Errorf("%w: %s", apperrors.ErrSigning, parsed.Error)
	}
	return parsed.SignedXML, nil
}
