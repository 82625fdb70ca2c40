package services

import (
	"context"
	"testing"

	"hvac-backend/internal/apperr"
	"hvac-backend/internal/models"
	"hvac-backend/internal/quoting"
	"hvac-backend/internal/services/servicetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateClient_NormalizesContact(t *testing.T) {
	svc := NewClientService(servicetest.New().Clients(), "BE")

	c, err := svc.CreateClient(context.Background(), &models.CreateClientRequest{
		Name:  " Marie Peeters ",
		Email: "Marie@Example.BE",
		Phone: "0470 12 34 56",
	})
	require.NoError(t, err)
	assert.Equal(t, "Marie Peeters", c.Name)
	assert.Equal(t, "marie@example.be", c.Email)
	assert.Equal(t, "+32470123456", c.Phone)
	assert.Equal(t, quoting.StageNouveau, c.CRMStage)
	assert.Equal(t, models.ChecklistsVersion, c.Checklists.Version)

	_, err = svc.CreateClient(context.Background(), &models.CreateClientRequest{Name: "X", Phone: "12"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestClientChecklistAndStage(t *testing.T) {
	db := servicetest.New()
	svc := NewClientService(db.Clients(), "BE")
	c := db.AddClient(models.Client{Name: "Atelier Nord"})
	ctx := context.Background()

	updated, err := svc.SetChecklistItem(ctx, c.ID, &models.ChecklistItemRequest{Stage: models.ChecklistVisite, Item: "q4", Checked: true})
	require.NoError(t, err)
	assert.True(t, updated.Checklists.Visite.Q4)

	_, err = svc.SetChecklistItem(ctx, c.ID, &models.ChecklistItemRequest{Stage: models.ChecklistVisite, Item: "q9", Checked: true})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	updated, err = svc.UpdateStage(ctx, c.ID, &models.UpdateStageRequest{Stage: quoting.StageAtelier})
	require.NoError(t, err)
	assert.Equal(t, quoting.StageAtelier, updated.CRMStage)

	_, err = svc.UpdateStage(ctx, c.ID, &models.UpdateStageRequest{Stage: "archive"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	_, err = svc.ListClients(ctx, "archive")
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestCreateProspect(t *testing.T) {
	db := servicetest.New()
	svc := NewProspectService(db.Prospects(), "BE")
	ctx := context.Background()

	_, err := svc.CreateProspect(ctx, &models.CreateProspectRequest{Name: "Sans contact"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	out, err := svc.CreateProspect(ctx, &models.CreateProspectRequest{
		Name:    "Luc Janssens",
		Phone:   "+32 2 555 12 34",
		Message: "Entretien pompe à chaleur",
	})
	require.NoError(t, err)

	assert.Equal(t, "website", out.Prospect.Source)
	require.NotNil(t, out.Prospect.ClientID)
	assert.Equal(t, out.Client.ID, *out.Prospect.ClientID)
	assert.True(t, out.Client.IsProspect)
	assert.Equal(t, quoting.StageNouveau, out.Client.CRMStage)
	assert.Equal(t, "+3225551234", out.Client.Phone)

	stored := db.Client(out.Client.ID)
	require.NotNil(t, stored)
	assert.Equal(t, "Luc Janssens", stored.Name)
}

func TestInventoryService(t *testing.T) {
	svc := NewInventoryService(servicetest.New().Inventory())
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, &models.CreateInventoryItemRequest{SKU: "F-100", Name: "Filtre", UnitPrice: dec("12.345")})
	require.NoError(t, err)
	assert.Equal(t, "12.35", item.UnitPrice.StringFixed(2))

	_, err = svc.CreateItem(ctx, &models.CreateInventoryItemRequest{SKU: "F-101", Name: "Filtre", UnitPrice: dec("-1")})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
