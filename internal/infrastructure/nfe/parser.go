// Package nfe reads Brazilian electronic invoice (NF-e) XML documents.
package nfe

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/checkmaster/backend/internal/domain/conference"
	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/checkmaster/backend/internal/domain/shared/valueobject"
	"golang.org/x/text/encoding/charmap"
)

// accessKeyPrefix precedes the access key in the infNFe Id attribute
const accessKeyPrefix = "NFe"

// infNFe mirrors the subset of the invoice layout the conference needs
type infNFe struct {
	ID   string `xml:"Id,attr"`
	Ide  ide    `xml:"ide"`
	Emit emit   `xml:"emit"`
	Det  []det  `xml:"det"`
}

type ide struct {
	Number string `xml:"nNF"`
	DhEmi  string `xml:"dhEmi"`
	DEmi   string `xml:"dEmi"` // layout 2.00
}

type emit struct {
	CNPJ string `xml:"CNPJ"`
	CPF  string `xml:"CPF"`
	Name string `xml:"xNome"`
}

type det struct {
	Prod prod `xml:"prod"`
}

type prod struct {
	Code        string `xml:"cProd"`
	EAN         string `xml:"cEAN"`
	Description string `xml:"xProd"`
	Quantity    string `xml:"qCom"`
}

// Parser implements the invoice parser port for NF-e documents
type Parser struct{}

// NewParser creates a new NF-e parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads one document. Any failure is a PARSE_ERROR naming what was wrong.
func (p *Parser) Parse(ctx context.Context, document []byte) (*conference.ParsedInvoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(document)) == 0 {
		return nil, parseError("document is empty")
	}

	inf, err := decodeInfNFe(document)
	if err != nil {
		return nil, err
	}

	header, err := inf.header()
	if err != nil {
		return nil, err
	}

	items := make([]conference.LineItem, 0, len(inf.Det))
	for i, d := range inf.Det {
		item, err := d.Prod.lineItem()
		if err != nil {
			return nil, parseError(fmt.Sprintf("item %d: %s", i+1, describe(err)))
		}
		items = append(items, *item)
	}

	return &conference.ParsedInvoice{Header: header, Items: items}, nil
}

// decodeInfNFe finds the infNFe element whether the document is a bare NFe or an nfeProc envelope
func decodeInfNFe(document []byte) (*infNFe, error) {
	dec := xml.NewDecoder(bytes.NewReader(document))
	dec.CharsetReader = charsetReader

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, parseError("infNFe element not found")
		}
		if err != nil {
			return nil, parseError("malformed XML: " + err.Error())
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "infNFe" {
			continue
		}
		var inf infNFe
		if err := dec.DecodeElement(&inf, &start); err != nil {
			return nil, parseError("malformed XML: " + err.Error())
		}
		return &inf, nil
	}
}

func (inf *infNFe) header() (conference.InvoiceHeader, error) {
	accessKey := strings.TrimPrefix(strings.TrimSpace(inf.ID), accessKeyPrefix)
	if accessKey == "" {
		return conference.InvoiceHeader{}, parseError("invoice has no access key")
	}

	emitted, err := parseEmission(inf.Ide)
	if err != nil {
		return conference.InvoiceHeader{}, err
	}

	taxID := strings.TrimSpace(inf.Emit.CNPJ)
	if taxID == "" {
		taxID = strings.TrimSpace(inf.Emit.CPF)
	}

	header := conference.InvoiceHeader{
		Number:       strings.TrimSpace(inf.Ide.Number),
		AccessKey:    accessKey,
		VendorTaxID:  taxID,
		VendorName:   strings.TrimSpace(inf.Emit.Name),
		EmissionDate: emitted,
	}
	if err := header.Validate(); err != nil {
		return conference.InvoiceHeader{}, err
	}
	return header, nil
}

func parseEmission(i ide) (time.Time, error) {
	if v := strings.TrimSpace(i.DhEmi); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, parseError("invalid emission date " + v)
		}
		return t, nil
	}
	if v := strings.TrimSpace(i.DEmi); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return time.Time{}, parseError("invalid emission date " + v)
		}
		return t, nil
	}
	return time.Time{}, nil
}

func (p prod) lineItem() (*conference.LineItem, error) {
	raw := strings.TrimSpace(p.Quantity)
	if raw == "" {
		raw = "0"
	}
	qty, err := valueobject.NewQuantityFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q", raw)
	}
	return conference.NewLineItem(p.Code, p.EAN, p.Description, qty)
}

// charsetReader accepts the Latin encodings some issuers still declare
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("unsupported charset %s", label)
}

func parseError(message string) error {
	return shared.NewDomainError(shared.CodeParseError, message)
}

func describe(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
