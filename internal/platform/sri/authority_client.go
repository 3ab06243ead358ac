// Package sri implements the adapters that talk to the Ecuadorian tax
// authority (SRI): the SOAP reception/authorization transport, the signing
// service client and the document XML renderer.
package sri

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quipuware/quipu_backend/internal/core/ports/external"
)

// parseAuthorizationDate handles the timestamp formats the authority emits.
func parseAuthorizationDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000-07:00", "02/01/2006 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized authorization date %q", value)
}

const (
	receptionStatusReceived = "RECIBIDA"
	receptionStatusReturned = "DEVUELTA"

	authorizationStatusAuthorized = "AUTORIZADO"
	authorizationStatusRejected   = "NO AUTORIZADO"
	authorizationStatusInProcess  = "EN PROCESO"
)

// Config holds the SOAP endpoints per environment. Environment "1" is the
// authority's test system, "2" production.
type Config struct {
	ReceptionURLTest     string
	AuthorizationURLTest string
	ReceptionURLProd     string
	AuthorizationURLProd string
}

// AuthorityClient is the SOAP transport to the SRI reception and
// authorization web services.
type AuthorityClient struct {
	httpClient *http.Client
	config     Config
}

// NewAuthorityClient creates the SOAP client.
func NewAuthorityClient(httpClient *http.Client, config Config) *AuthorityClient {
	return &AuthorityClient{httpClient: httpClient, config: config}
}

var _ external.AuthorityClient = (*AuthorityClient)(nil)

type receptionEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Response struct {
			Result struct {
				Estado       string `xml:"estado"`
				Comprobantes struct {
					Inner string `xml:",innerxml"`
				} `xml:"comprobantes"`
			} `xml:"RespuestaRecepcionComprobante"`
		} `xml:"validarComprobanteResponse"`
	} `xml:"Body"`
}

type authorizationEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Response struct {
			Result struct {
				Autorizaciones struct {
					Autorizacion []struct {
						Estado            string `xml:"estado"`
						NumeroAutorizacion string `xml:"numeroAutorizacion"`
						FechaAutorizacion  string `xml:"fechaAutorizacion"`
					} `xml:"autorizacion"`
				} `xml:"autorizaciones"`
			} `xml:"RespuestaAutorizacionComprobante"`
		} `xml:"autorizacionComprobanteResponse"`
	} `xml:"Body"`
}

func (c *AuthorityClient) endpoints(environment string) (reception, authorization string) {
	if environment == "2" {
		return c.config.ReceptionURLProd, c.config.AuthorizationURLProd
	}
	return c.config.ReceptionURLTest, c.config.AuthorizationURLTest
}

func (c *AuthorityClient) call(ctx context.Context, url, soapBody string) ([]byte, error) {
	envelope := fmt.Sprintf(
		`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:ec="http://ec.gob.sri.ws.recepcion"><soapenv:Header/><soapenv:Body>%s</soapenv:Body></soapenv:Envelope>`,
		soapBody,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(envelope))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("authority returned HTTP %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// Transmit submits a signed XML to the reception service.
func (c *AuthorityClient) Transmit(ctx context.Context, signedXML string, environment string) (*external.TransmitResult, error) {
	receptionURL, _ := c.endpoints(environment)

	soapBody := fmt.Sprintf(
		`<ec:validarComprobante><xml>%s</xml></ec:validarComprobante>`,
		base64.StdEncoding.EncodeToString([]byte(signedXML)),
	)
	raw, err := c.call(ctx, receptionURL, soapBody)
	if err != nil {
		return nil, fmt.Errorf("reception call failed: %w", err)
	}

	var envelope receptionEnvelope
	if err := xml.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse reception response: %w", err)
	}

	status := envelope.Body.Response.Result.Estado
	return &external.TransmitResult{
		Accepted: status == receptionStatusReceived,
		Returned: status == receptionStatusReturned,
		Status:   status,
		Raw:      string(raw),
	}, nil
}

// QueryAuthorization asks the authorization service for the outcome of a
// previously received document.
func (c *AuthorityClient) QueryAuthorization(ctx context.Context, accessKey string, environment string) (*external.AuthorizationResult, error) {
	_, authorizationURL := c.endpoints(environment)

	soapBody := fmt.Sprintf(
		`<ec:autorizacionComprobante><claveAccesoComprobante>%s</claveAccesoComprobante></ec:autorizacionComprobante>`,
		accessKey,
	)
	raw, err := c.call(ctx, authorizationURL, soapBody)
	if err != nil {
		return nil, fmt.Errorf("authorization call failed: %w", err)
	}

	var envelope authorizationEnvelope
	if err := xml.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse authorization response: %w", err)
	}

	result := &external.AuthorizationResult{
		Status: external.AuthorizationNotAvailable,
		Raw:    string(raw),
	}
	authorizations := envelope.Body.Response.Result.Autorizaciones.Autorizacion
	if len(authorizations) == 0 {
		return result, nil
	}

	first := authorizations[0]
	switch first.Estado {
	case authorizationStatusAuthorized:
		result.Status = external.AuthorizationAuthorized
		if first.NumeroAutorizacion != "" {
			number := first.NumeroAutorizacion
			result.AuthorizationNumber = &number
		}
		if date, err := parseAuthorizationDate(first.FechaAutorizacion); err == nil {
			result.AuthorizationDate = &date
		}
	case authorizationStatusRejected:
		result.Status = external.AuthorizationRejected
	case authorizationStatusInProcess:
		result.Status = external.AuthorizationInProcess
	}
	return result, nil
}
