package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichmentKind_IsValid(t *testing.T) {
	assert.True(t, KindCompany.IsValid())
	assert.True(t, KindAddress.IsValid())
	assert.True(t, KindEmail.IsValid())
	assert.True(t, KindPhone.IsValid())
	assert.False(t, EnrichmentKind("bogus").IsValid())
	assert.False(t, EnrichmentKind("").IsValid())
}

func TestEnrichmentKind_Columns(t *testing.T) {
	t.Run("company produces seven columns", func(t *testing.T) {
		cols := KindCompany.Columns()
		require.Len(t, cols, 7)
		assert.Equal(t, "razao_social", cols[0].ID)
		for _, col := range cols {
			assert.Equal(t, ColumnEnriched, col.Type)
			assert.Equal(t, KindCompany, col.Enrichment)
			assert.False(t, col.Editable)
		}
	})

	t.Run("address produces seven columns", func(t *testing.T) {
		cols := KindAddress.Columns()
		require.Len(t, cols, 7)
		assert.Equal(t, "logradouro", cols[0].ID)
		assert.Equal(t, "cep", cols[6].ID)
	})

	t.Run("email and phone produce one column", func(t *testing.T) {
		require.Len(t, KindEmail.Columns(), 1)
		require.Len(t, KindPhone.Columns(), 1)
	})

	t.Run("unknown kind produces nothing", func(t *testing.T) {
		assert.Nil(t, EnrichmentKind("bogus").Columns())
	})
}

func TestEnrichmentKind_FieldsFrom(t *testing.T) {
	rec := &CompanyRecord{
		CNPJ:         "11222333000181",
		LegalName:    "MARIA COMERCIO LTDA",
		TradeName:    "Maria",
		Status:       "ATIVA",
		ShareCapital: 50000,
		City:         "Sao Paulo",
		State:        "SP",
		Email:        "contato@maria.com.br",
		Phone:        "1131234567",
	}

	t.Run("company fields", func(t *testing.T) {
		fields := KindCompany.FieldsFrom(rec)
		assert.Equal(t, "MARIA COMERCIO LTDA", fields["razao_social"])
		assert.Equal(t, "ATIVA", fields["situacao_cadastral"])
		assert.Equal(t, 50000.0, fields["capital_social"])
	})

	t.Run("fields match declared columns", func(t *testing.T) {
		for _, kind := range []EnrichmentKind{KindCompany, KindAddress, KindEmail, KindPhone} {
			fields := kind.FieldsFrom(rec)
			cols := kind.Columns()
			require.Len(t, fields, len(cols), "kind %s", kind)
			for _, col := range cols {
				assert.Contains(t, fields, col.ID, "kind %s", kind)
			}
		}
	})
}

func TestSessionStatus_IsTerminal(t *testing.T) {
	assert.False(t, SessionPending.IsTerminal())
	assert.False(t, SessionProcessing.IsTerminal())
	assert.True(t, SessionCompleted.IsTerminal())
	assert.True(t, SessionCancelled.IsTerminal())
	assert.True(t, SessionError.IsTerminal())
}

func TestEnrichmentOptions_WithDefaults(t *testing.T) {
	t.Run("fills zero values", func(t *testing.T) {
		opts := EnrichmentOptions{}.WithDefaults()
		assert.Equal(t, DefaultTaxIDField, opts.TaxIDField)
		assert.Equal(t, DefaultBatchSize, opts.BatchSize)
		assert.Equal(t, DefaultConcurrency, opts.Concurrency)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		opts := EnrichmentOptions{
			TaxIDField:  "documento",
			BatchSize:   10,
			Concurrency: 1,
		}.WithDefaults()
		assert.Equal(t, "documento", opts.TaxIDField)
		assert.Equal(t, 10, opts.BatchSize)
		assert.Equal(t, 1, opts.Concurrency)
	})
}

func TestNewEnrichmentSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := []RowRef{{Index: 0}, {Index: 2}, {Index: 5}}

	session := NewEnrichmentSession("sheet-1", KindCompany, rows, "user-1", now)

	assert.True(t, len(session.ID) > 4 && session.ID[:4] == "enr_")
	assert.Equal(t, "sheet-1", session.SheetID)
	assert.Equal(t, KindCompany, session.Kind)
	assert.Equal(t, "user-1", session.RequestedBy)
	assert.Equal(t, SessionPending, session.Status)
	assert.Equal(t, 3, session.Progress.Total)
	assert.Equal(t, now, session.StartTime)
}

func TestNewSessionID_VariesWithTime(t *testing.T) {
	rows := []RowRef{{Index: 0}}
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Nanosecond)

	assert.NotEqual(t,
		NewSessionID(rows, KindCompany, t1),
		NewSessionID(rows, KindCompany, t2))
}

func TestEnrichmentSession_Clone_Isolation(t *testing.T) {
	session := &EnrichmentSession{
		ID:      "enr_abc",
		Results: []RowResult{{RowIndex: 1, TaxID: "11222333000181"}},
	}

	clone := session.Clone()
	clone.Results[0].TaxID = "changed"
	clone.Status = SessionCompleted

	assert.Equal(t, "11222333000181", session.Results[0].TaxID)
	assert.NotEqual(t, SessionCompleted, session.Status)
}
