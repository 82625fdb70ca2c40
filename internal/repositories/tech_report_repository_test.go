package repositories

import (
	"context"
	"testing"
	"time"

	"hvac-backend/internal/models"
	"hvac-backend/internal/quoting"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syncFixture() (*models.TechReport, *models.Quote, []models.QuoteItem) {
	inv := "inv-b"
	report := &models.TechReport{ID: "r-1", EstimatedHours: decimal.Zero, Parts: []models.ReportPart{{InventoryItemID: inv, Quantity: decimal.RequireFromString("2")}}}
	quote := &models.Quote{ID: "q-1", Status: quoting.StatusSent}
	items := []models.QuoteItem{{
		Kind:            quoting.KindPart,
		Label:           "Part B",
		InventoryItemID: &inv,
		Quantity:        decimal.RequireFromString("2"),
		UnitPrice:       decimal.RequireFromString("15.25"),
		LineTotal:       decimal.RequireFromString("30.50"),
	}}
	return report, quote, items
}

func TestSyncQuote_ReplacesItems(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	report, quote, items := syncFixture()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE tech_reports SET estimated_hours = \$2`).
		WithArgs(append([]interface{}{"r-1"}, anyArgs(3)...)...).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(now))
	mock.ExpectExec(`UPDATE quotes SET estimated_hours = \$2 .* WHERE id = \$1 AND status IN \('draft', 'sent'\)`).
		WithArgs(append([]interface{}{"q-1"}, anyArgs(7)...)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	// every old row goes before the new set is written
	mock.ExpectExec(`DELETE FROM quote_items WHERE quote_id = \$1`).
		WithArgs("q-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectQuery(`INSERT INTO quote_items`).
		WithArgs(append([]interface{}{"q-1", "part", "Part B"}, append(anyArgs(4), 0)...)...).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("it-9", now))
	mock.ExpectCommit()

	saved, err := NewTechReportRepository(mock).SyncQuote(context.Background(), report, quote, items)
	require.NoError(t, err)

	require.Len(t, saved, 1)
	assert.Equal(t, "it-9", saved[0].ID)
	assert.Equal(t, "q-1", saved[0].QuoteID)
	assert.Equal(t, now, report.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncQuote_AnsweredQuoteLocked(t *testing.T) {
	mock := newMock(t)
	report, quote, items := syncFixture()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE tech_reports`).
		WithArgs(anyArgs(4)...).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	mock.ExpectExec(`UPDATE quotes SET estimated_hours`).
		WithArgs(anyArgs(8)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err := NewTechReportRepository(mock).SyncQuote(context.Background(), report, quote, items)
	assert.ErrorIs(t, err, ErrQuoteLocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithQuote_LinksBothWays(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	report := &models.TechReport{ClientID: "c-1", Parts: []models.ReportPart{}}
	quote := &models.Quote{ClientID: "c-1"}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO tech_reports`).
		WithArgs(anyArgs(9)...).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("r-1", now, now))
	mock.ExpectQuery(`INSERT INTO quote_number_counters`).
		WithArgs(anyArgs(2)...).
		WillReturnRows(pgxmock.NewRows([]string{"last_seq"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO quotes \(`).
		WithArgs(anyArgs(14)...).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("q-1", now, now))
	mock.ExpectQuery(`INSERT INTO quote_items`).
		WithArgs(anyArgs(8)...).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("it-1", now))
	mock.ExpectExec(`UPDATE tech_reports SET quote_id = \$2 WHERE id = \$1`).
		WithArgs("r-1", "q-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	_, err := NewTechReportRepository(mock).CreateWithQuote(context.Background(), report, quote, []models.QuoteItem{laborItem()})
	require.NoError(t, err)

	require.NotNil(t, quote.TechReportID)
	assert.Equal(t, "r-1", *quote.TechReportID)
	require.NotNil(t, report.QuoteID)
	assert.Equal(t, "q-1", *report.QuoteID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
