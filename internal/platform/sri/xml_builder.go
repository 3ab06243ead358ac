package sri

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quipuware/quipu_backend/internal/core/domain"
	"github.com/quipuware/quipu_backend/internal/core/ports/external"
)

// DocumentXMLBuilder renders the authority's comprobante XML for a document.
type DocumentXMLBuilder struct{}

// NewDocumentXMLBuilder creates the XML renderer.
func NewDocumentXMLBuilder() *DocumentXMLBuilder {
	return &DocumentXMLBuilder{}
}

var _ external.XMLBuilder = (*DocumentXMLBuilder)(nil)

type taxInfoXML struct {
	Environment   string `xml:"ambiente"`
	EmissionType  string `xml:"tipoEmision"`
	RUC           string `xml:"ruc"`
	AccessKey     string `xml:"claveAcceso"`
	DocumentType  string `xml:"codDoc"`
	Establishment string `xml:"estab"`
	EmissionPoint string `xml:"ptoEmi"`
	Sequence      string `xml:"secuencial"`
}

type invoiceInfoXML struct {
	IssueDate  string `xml:"fechaEmision"`
	Subtotal   string `xml:"totalSinImpuestos"`
	Discount   string `xml:"totalDescuento"`
	Total      string `xml:"importeTotal"`
	CustomerID string `xml:"identificacionComprador"`
}

type itemXML struct {
	Description string `xml:"descripcion"`
	Quantity    string `xml:"cantidad"`
	UnitPrice   string `xml:"precioUnitario"`
	Discount    string `xml:"descuento"`
	Net         string `xml:"precioTotalSinImpuesto"`
}

type comprobanteXML struct {
	XMLName xml.Name       `xml:"factura"`
	ID      string         `xml:"id,attr"`
	Version string         `xml:"version,attr"`
	TaxInfo taxInfoXML     `xml:"infoTributaria"`
	Info    invoiceInfoXML `xml:"infoFactura"`
	Items   []itemXML      `xml:"detalles>detalle"`
}

// BuildXML renders the unsigned comprobante. The access key must already be
// set on the fiscal info.
func (b *DocumentXMLBuilder) BuildXML(ctx context.Context, document *domain.Document, fiscal *domain.DocumentFiscalInfo, settings *domain.TenantSettings) (string, error) {
	if fiscal.AccessKey == nil {
		return "", fmt.Errorf("fiscal info of document %s has no access key", document.DocumentID)
	}

	typeCode, ok := documentTypeCodesXML[document.Kind]
	if !ok {
		return "", fmt.Errorf("document kind %s has no comprobante type", document.Kind)
	}

	comprobante := comprobanteXML{
		ID:      "comprobante",
		Version: "1.1.0",
		TaxInfo: taxInfoXML{
			Environment:   settings.SRIEnvironment,
			EmissionType:  "1",
			RUC:           settings.RUC,
			AccessKey:     *fiscal.AccessKey,
			DocumentType:  typeCode,
			Establishment: fiscal.Establishment,
			EmissionPoint: fiscal.EmissionPoint,
			Sequence:      fmt.Sprintf("%09d", fiscal.Sequence),
		},
		Info: invoiceInfoXML{
			IssueDate:  document.IssueDate.Format("02/01/2006"),
			Subtotal:   money(document.Subtotal),
			Discount:   money(document.Discount),
			Total:      money(document.Total),
			CustomerID: document.PersonID,
		},
	}
	for _, item := range document.Items {
		comprobante.Items = append(comprobante.Items, itemXML{
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			UnitPrice:   money(item.UnitPrice),
			Discount:    money(item.Discount),
			Net:         money(item.Net()),
		})
	}

	out, err := xml.MarshalIndent(comprobante, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render comprobante for document %s: %w", document.DocumentID, err)
	}
	return xml.Header + string(out), nil
}

var documentTypeCodesXML = map[domain.DocumentKind]string{
	domain.KindInvoice:    "01",
	domain.KindCreditNote: "04",
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
