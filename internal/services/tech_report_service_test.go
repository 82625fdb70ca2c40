package services

import (
	"context"
	"encoding/base64"
	"testing"

	"hvac-backend/internal/apperr"
	"hvac-backend/internal/models"
	"hvac-backend/internal/quoting"
	"hvac-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingUploader struct {
	paths []string
}

func (u *recordingUploader) Upload(_ context.Context, path string, _ []byte, _ string) (string, error) {
	u.paths = append(u.paths, path)
	return "https://files.example.be/" + path, nil
}

func newReportService(f *fixture, up storage.Uploader) *TechReportService {
	return NewTechReportService(f.db.Reports(), f.db.Quotes(), f.db.Clients(), f.db.Inventory(), f.settings, up, nil)
}

func TestTechReportCreate(t *testing.T) {
	f := newFixture(t)
	svc := newReportService(f, storage.Disabled{})
	a := f.db.AddInventory(models.InventoryItem{SKU: "A", Name: "Filtre A", UnitPrice: dec("25")})

	out, err := svc.Create(context.Background(), &models.CreateTechReportRequest{
		ClientID:       f.client.ID,
		EstimatedHours: dec("1.5"),
		Parts:          []models.ReportPart{{InventoryItemID: a.ID, Quantity: dec("2")}},
	}, "3f6c1a2e-8b9d-4e0f-a1b2-c3d4e5f6a7b8")
	require.NoError(t, err)

	assert.Equal(t, quoting.StatusDraft, out.Quote.Status)
	require.NotNil(t, out.Report.QuoteID)
	assert.Equal(t, out.Quote.ID, *out.Report.QuoteID)
	assert.Equal(t, "65", out.Report.HourlyRate.String())
	assert.Equal(t, "97.50", out.Quote.LaborTotal.StringFixed(2))
	assert.Equal(t, "50.00", out.Quote.PartsTotal.StringFixed(2))
	assert.Equal(t, "178.48", out.Quote.Total.StringFixed(2))
	require.Len(t, out.Items, 2)
	assert.Equal(t, "Filtre A", out.Items[1].Label)
}

func TestTechReportCreate_UploadsSignature(t *testing.T) {
	f := newFixture(t)
	up := &recordingUploader{}
	svc := newReportService(f, up)
	png := base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))

	out, err := svc.Create(context.Background(), &models.CreateTechReportRequest{
		ClientID:       f.client.ID,
		EstimatedHours: dec("1"),
		Signature:      "data:image/png;base64," + png,
	}, "")
	require.NoError(t, err)

	require.Len(t, up.paths, 1)
	assert.Contains(t, up.paths[0], "tech-reports/"+f.client.ID+"/")
	assert.Contains(t, out.Report.SignatureURL, "https://files.example.be/")
	assert.NotNil(t, out.Report.SignedAt)
}

func TestTechReportCreate_BadSignature(t *testing.T) {
	f := newFixture(t)
	svc := newReportService(f, &recordingUploader{})

	_, err := svc.Create(context.Background(), &models.CreateTechReportRequest{
		ClientID:       f.client.ID,
		EstimatedHours: dec("1"),
		Signature:      "not an image",
	}, "")
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestTechReportUpdate_ReplacesItems(t *testing.T) {
	f := newFixture(t)
	svc := newReportService(f, storage.Disabled{})
	a := f.db.AddInventory(models.InventoryItem{SKU: "A", Name: "Part A", UnitPrice: dec("40")})
	b := f.db.AddInventory(models.InventoryItem{SKU: "B", Name: "Part B", UnitPrice: dec("15.25")})

	created, err := svc.Create(context.Background(), &models.CreateTechReportRequest{
		ClientID:       f.client.ID,
		EstimatedHours: dec("1"),
		Parts:          []models.ReportPart{{InventoryItemID: a.ID, Quantity: dec("1")}},
	}, "")
	require.NoError(t, err)

	parts := []models.ReportPart{{InventoryItemID: b.ID, Quantity: dec("2")}}
	out, err := svc.Update(context.Background(), &models.UpdateTechReportRequest{
		ReportID: created.Report.ID,
		Parts:    &parts,
	})
	require.NoError(t, err)

	items := f.db.Items(created.Quote.ID)
	var partRows []models.QuoteItem
	for _, it := range items {
		if it.Kind == quoting.KindPart {
			partRows = append(partRows, it)
		}
	}
	require.Len(t, partRows, 1)
	assert.Equal(t, b.ID, *partRows[0].InventoryItemID)
	assert.Equal(t, "2", partRows[0].Quantity.String())

	stored := f.db.Quote(created.Quote.ID)
	assert.Equal(t, "30.50", stored.PartsTotal.StringFixed(2))
	assert.Equal(t, "65.00", stored.LaborTotal.StringFixed(2))
	assert.Equal(t, stored.Total.StringFixed(2), out.Quote.Total.StringFixed(2))
	assert.Equal(t, "115.56", stored.Total.StringFixed(2))
}

func TestTechReportUpdate_UsesCurrentPrices(t *testing.T) {
	f := newFixture(t)
	svc := newReportService(f, storage.Disabled{})
	a := f.db.AddInventory(models.InventoryItem{SKU: "A", Name: "Part A", UnitPrice: dec("10")})

	created, err := svc.Create(context.Background(), &models.CreateTechReportRequest{
		ClientID: f.client.ID,
		Parts:    []models.ReportPart{{InventoryItemID: a.ID, Quantity: dec("3")}},
	}, "")
	require.NoError(t, err)

	f.db.SetPrice(a.ID, dec("12"))
	notes := "prix mis à jour"
	out, err := svc.Update(context.Background(), &models.UpdateTechReportRequest{ReportID: created.Report.ID, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "36.00", out.Quote.PartsTotal.StringFixed(2))
	assert.Equal(t, notes, out.Report.Notes)
}

func TestTechReportUpdate_MissingInventoryPricedAtZero(t *testing.T) {
	f := newFixture(t)
	svc := newReportService(f, storage.Disabled{})

	created, err := svc.Create(context.Background(), &models.CreateTechReportRequest{
		ClientID:       f.client.ID,
		EstimatedHours: dec("1"),
	}, "")
	require.NoError(t, err)

	parts := []models.ReportPart{{InventoryItemID: "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d", Quantity: dec("1")}}
	out, err := svc.Update(context.Background(), &models.UpdateTechReportRequest{ReportID: created.Report.ID, Parts: &parts})
	require.NoError(t, err)
	assert.True(t, out.Quote.PartsTotal.IsZero())
	require.Len(t, out.Items, 2)
	assert.Equal(t, unknownPartLabel, out.Items[1].Label)
}

func TestTechReportUpdate_AnsweredQuoteRejected(t *testing.T) {
	f := newFixture(t)
	svc := newReportService(f, storage.Disabled{})

	created, err := svc.Create(context.Background(), &models.CreateTechReportRequest{
		ClientID:       f.client.ID,
		EstimatedHours: dec("1"),
	}, "")
	require.NoError(t, err)
	f.db.SetQuoteStatus(created.Quote.ID, quoting.StatusAccepted)

	hours := dec("3")
	_, err = svc.Update(context.Background(), &models.UpdateTechReportRequest{ReportID: created.Report.ID, EstimatedHours: &hours})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
	assert.Equal(t, "65.00", f.db.Quote(created.Quote.ID).LaborTotal.StringFixed(2))
}

func TestTechReportUpdate_EmptyRejected(t *testing.T) {
	f := newFixture(t)
	svc := newReportService(f, storage.Disabled{})

	created, err := svc.Create(context.Background(), &models.CreateTechReportRequest{
		ClientID:       f.client.ID,
		EstimatedHours: dec("1"),
	}, "")
	require.NoError(t, err)

	zero := dec("0")
	_, err = svc.Update(context.Background(), &models.UpdateTechReportRequest{ReportID: created.Report.ID, EstimatedHours: &zero})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
	assert.Len(t, f.db.Items(created.Quote.ID), 1)
}

func TestTechReportCreate_RejectsSubCentAmounts(t *testing.T) {
	f := newFixture(t)
	svc := newReportService(f, storage.Disabled{})
	a := f.db.AddInventory(models.InventoryItem{SKU: "A", Name: "Filtre A", UnitPrice: dec("25")})

	tests := []struct {
		name string
		req  models.CreateTechReportRequest
	}{
		{"hours", models.CreateTechReportRequest{EstimatedHours: dec("1.005")}},
		{"hourly rate", models.CreateTechReportRequest{EstimatedHours: dec("1"), HourlyRate: decPtr("62.125")}},
		{"part quantity", models.CreateTechReportRequest{Parts: []models.ReportPart{{InventoryItemID: a.ID, Quantity: dec("0.001")}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			req.ClientID = f.client.ID
			_, err := svc.Create(context.Background(), &req, "")
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.CodeValidation), "got %v", err)
			assert.Contains(t, err.Error(), "at most 2 decimals")
		})
	}
}

func TestTechReportUpdate_RejectsSubCentAmounts(t *testing.T) {
	f := newFixture(t)
	svc := newReportService(f, storage.Disabled{})
	a := f.db.AddInventory(models.InventoryItem{SKU: "A", Name: "Filtre A", UnitPrice: dec("25")})

	created, err := svc.Create(context.Background(), &models.CreateTechReportRequest{
		ClientID:       f.client.ID,
		EstimatedHours: dec("1"),
	}, "")
	require.NoError(t, err)

	hours := dec("2.125")
	_, err = svc.Update(context.Background(), &models.UpdateTechReportRequest{ReportID: created.Report.ID, EstimatedHours: &hours})
	assert.True(t, apperr.Is(err, apperr.CodeValidation), "got %v", err)

	parts := []models.ReportPart{{InventoryItemID: a.ID, Quantity: dec("1.333")}}
	_, err = svc.Update(context.Background(), &models.UpdateTechReportRequest{ReportID: created.Report.ID, Parts: &parts})
	assert.True(t, apperr.Is(err, apperr.CodeValidation), "got %v", err)

	stored := f.db.Quote(created.Quote.ID)
	assert.Equal(t, "65.00", stored.LaborTotal.StringFixed(2))
	assert.Len(t, f.db.Items(created.Quote.ID), 1)
}

func TestTechReportGet_NotFound(t *testing.T) {
	f := newFixture(t)
	svc := newReportService(f, storage.Disabled{})

	_, err := svc.Get(context.Background(), "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}
