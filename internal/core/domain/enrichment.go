package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"
)

// EnrichmentKind selects which registry fields an enrichment pass writes
// back into the sheet. Each kind owns a fixed, ordered output column set;
// payloads are never free-form key/value blobs.
type EnrichmentKind string

// Available enrichment kinds.
const (
	KindCompany EnrichmentKind = "company"
	KindAddress EnrichmentKind = "address"
	KindEmail   EnrichmentKind = "email"
	KindPhone   EnrichmentKind = "phone"
)

// IsValid returns true if the enrichment kind is recognised.
func (k EnrichmentKind) IsValid() bool {
	switch k {
	case KindCompany, KindAddress, KindEmail, KindPhone:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k EnrichmentKind) String() string {
	return string(k)
}

// Error fields written for rows whose lookup failed. Created on first
// sight like every other enriched column.
const (
	FieldEnrichmentError     = "enrichment_error"
	FieldEnrichmentErrorCode = "enrichment_error_code"
)

// enrichedColumn builds one enrichment-produced column definition.
func enrichedColumn(id, name string, kind EnrichmentKind) Column {
	return Column{ID: id, Name: name, Type: ColumnEnriched, Enrichment: kind}
}

// Columns returns the output columns this kind produces, in render order.
// The pipeline pre-creates all of them before any data arrives so clients
// can draw the final table shape immediately.
func (k EnrichmentKind) Columns() []Column {
	switch k {
	case KindCompany:
		return []Column{
			enrichedColumn("razao_social", "Razao Social", k),
			enrichedColumn("nome_fantasia", "Nome Fantasia", k),
			enrichedColumn("situacao_cadastral", "Situacao Cadastral", k),
			enrichedColumn("data_abertura", "Data Abertura", k),
			enrichedColumn("natureza_juridica", "Natureza Juridica", k),
			enrichedColumn("atividade_principal", "Atividade Principal", k),
			enrichedColumn("capital_social", "Capital Social", k),
		}
	case KindAddress:
		return []Column{
			enrichedColumn("logradouro", "Logradouro", k),
			enrichedColumn("numero", "Numero", k),
			enrichedColumn("complemento", "Complemento", k),
			enrichedColumn("bairro", "Bairro", k),
			enrichedColumn("municipio", "Municipio", k),
			enrichedColumn("uf", "UF", k),
			enrichedColumn("cep", "CEP", k),
		}
	case KindEmail:
		return []Column{enrichedColumn("email_registro", "Email Registro", k)}
	case KindPhone:
		return []Column{enrichedColumn("telefone_registro", "Telefone Registro", k)}
	default:
		return nil
	}
}

// CompanyRecord is the structured result of a registry lookup.
type CompanyRecord struct {
	CNPJ         string
	LegalName    string
	TradeName    string
	Status       string
	OpenedAt     string
	LegalNature  string
	MainActivity string
	ShareCapital float64

	Street     string
	Number     string
	Complement string
	District   string
	City       string
	State      string
	ZipCode    string

	Email string
	Phone string
}

// FieldsFrom maps a registry record into this kind's output fields.
func (k EnrichmentKind) FieldsFrom(rec *CompanyRecord) map[string]any {
	switch k {
	case KindCompany:
		return map[string]any{
			"razao_social":        rec.LegalName,
			"nome_fantasia":       rec.TradeName,
			"situacao_cadastral":  rec.Status,
			"data_abertura":       rec.OpenedAt,
			"natureza_juridica":   rec.LegalNature,
			"atividade_principal": rec.MainActivity,
			"capital_social":      rec.ShareCapital,
		}
	case KindAddress:
		return map[string]any{
			"logradouro":  rec.Street,
			"numero":      rec.Number,
			"complemento": rec.Complement,
			"bairro":      rec.District,
			"municipio":   rec.City,
			"uf":          rec.State,
			"cep":         rec.ZipCode,
		}
	case KindEmail:
		return map[string]any{"email_registro": rec.Email}
	case KindPhone:
		return map[string]any{"telefone_registro": rec.Phone}
	default:
		return nil
	}
}

// SessionStatus is the enrichment session state machine.
//
//	pending --(first batch dispatched)--> processing
//	processing --(all batches done)-----> completed
//	processing --(Cancel)---------------> cancelled
//	processing --(pipeline failure)-----> error
type SessionStatus string

// Session states.
const (
	SessionPending    SessionStatus = "pending"
	SessionProcessing SessionStatus = "processing"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
	SessionError      SessionStatus = "error"
)

// IsTerminal returns true once no further state transition is possible.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionCompleted, SessionCancelled, SessionError:
		return true
	default:
		return false
	}
}

// Progress tracks an enrichment pass. Updated after every item, not every
// batch, so subscribers see fine-grained movement.
type Progress struct {
	Processed    int     `json:"processed"`
	Total        int     `json:"total"`
	Percentage   float64 `json:"percentage"`
	CurrentBatch int     `json:"currentBatch"`
}

// RowResult is the outcome of enriching one row. Exactly one of Fields
// (success) or Err (per-item failure) carries the payload; failed rows
// still receive error marker fields so the failure is visible in the grid.
type RowResult struct {
	RowIndex int
	TaxID    string
	Fields   map[string]any
	Err      *LookupError
}

// EnrichmentSession is one run of the pipeline over a sheet's
// currently-unenriched rows.
type EnrichmentSession struct {
	ID          string
	SheetID     string
	Kind        EnrichmentKind
	RequestedBy string
	Status      SessionStatus
	Progress    Progress
	Results     []RowResult
	StartTime   time.Time
	EndTime     time.Time
	Error       string
}

// Clone returns a copy safe to hand to callers.
func (s *EnrichmentSession) Clone() *EnrichmentSession {
	c := *s
	c.Results = append([]RowResult(nil), s.Results...)
	return &c
}

// EnrichmentOptions tune one pass. Zero values take defaults.
type EnrichmentOptions struct {
	// TaxIDField names the column holding the CNPJ. Default "cnpj".
	TaxIDField string

	// BatchSize is the number of rows per registry batch. Default 50.
	BatchSize int

	// Concurrency bounds the batches in flight at once. Default 3.
	Concurrency int
}

// Enrichment option defaults.
const (
	DefaultTaxIDField  = "cnpj"
	DefaultBatchSize   = 50
	DefaultConcurrency = 3
)

// WithDefaults fills unset options.
func (o EnrichmentOptions) WithDefaults() EnrichmentOptions {
	if o.TaxIDField == "" {
		o.TaxIDField = DefaultTaxIDField
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

// NewSessionID derives a session id from the selected rows, the kind and
// the start time. Repeated calls over the same rows are traceable without
// being identical.
func NewSessionID(rows []RowRef, kind EnrichmentKind, now time.Time) string {
	h := sha1.New()
	fmt.Fprintf(h, "%s:%d:", kind, now.UnixNano())
	for _, r := range rows {
		fmt.Fprintf(h, "%d,", r.Index)
	}
	return "enr_" + hex.EncodeToString(h.Sum(nil))[:16]
}

// NewEnrichmentSession builds a pending session over the given rows.
func NewEnrichmentSession(sheetID string, kind EnrichmentKind, rows []RowRef, userID string, now time.Time) *EnrichmentSession {
	return &EnrichmentSession{
		ID:          NewSessionID(rows, kind, now),
		SheetID:     sheetID,
		Kind:        kind,
		RequestedBy: userID,
		Status:      SessionPending,
		Progress:    Progress{Total: len(rows)},
		StartTime:   now,
	}
}

// EnrichmentStats summarises a sheet's enrichment coverage.
type EnrichmentStats struct {
	Total      int `json:"total"`
	WithTaxID  int `json:"withTaxId"`
	Enriched   int `json:"enriched"`
	Unenriched int `json:"unenriched"`
}
