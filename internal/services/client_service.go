package services

import (
	"context"
	"fmt"
	"strings"

	"hvac-backend/internal/apperr"
	"hvac-backend/internal/models"
	"hvac-backend/internal/quoting"
	"hvac-backend/internal/sms"
	"hvac-backend/pkg/utils"
)

type ClientService struct {
	Repo   ClientStore
	Region string
}

func NewClientService(repo ClientStore, region string) *ClientService {
	return &ClientService{Repo: repo, Region: region}
}

// normalizePhone returns an empty phone unchanged and anything else in E.164.
func normalizePhone(phone, region string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	e164, err := sms.NormalizePhone(phone, region)
	if err != nil {
		return "", apperr.Validation("phone number is not valid")
	}
	return e164, nil
}

func (s *ClientService) CreateClient(ctx context.Context, req *models.CreateClientRequest) (*models.Client, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	phone, err := normalizePhone(req.Phone, s.Region)
	if err != nil {
		return nil, err
	}

	client := &models.Client{
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:         phone,
		Address:       req.Address,
		City:          req.City,
		PostalCode:    req.PostalCode,
		CRMStage:      quoting.StageNouveau,
		Checklists:    models.NewChecklists(),
		WorkflowState: models.WorkflowState{Version: models.WorkflowStateVersion},
	}
	if err := s.Repo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

func (s *ClientService) GetClient(ctx context.Context, id string) (*models.Client, error) {
	if !utils.IsUUID(id) {
		return nil, apperr.NotFound("client")
	}
	c, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "client")
	}
	return c, nil
}

func (s *ClientService) ListClients(ctx context.Context, stage string) ([]models.Client, error) {
	if stage != "" && !quoting.Stage(stage).Valid() {
		return nil, apperr.Validation("unknown crm stage")
	}
	return s.Repo.List(ctx, stage)
}

// UpdateStage moves a client on the pipeline board. Manual moves may go in
// any direction.
func (s *ClientService) UpdateStage(ctx context.Context, id string, req *models.UpdateStageRequest) (*models.Client, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	if !req.Stage.Valid() {
		return nil, apperr.Validation("unknown crm stage")
	}
	return s.patch(ctx, id, func(c *models.Client) error {
		c.CRMStage = req.Stage
		return nil
	})
}

// SetChecklistItem ticks or unticks one item of the fixed checklist template.
func (s *ClientService) SetChecklistItem(ctx context.Context, id string, req *models.ChecklistItemRequest) (*models.Client, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	return s.patch(ctx, id, func(c *models.Client) error {
		if err := c.Checklists.Set(req.Stage, req.Item, req.Checked); err != nil {
			return apperr.Validation(err.Error())
		}
		return nil
	})
}

func (s *ClientService) patch(ctx context.Context, id string, fn func(*models.Client) error) (*models.Client, error) {
	if !utils.IsUUID(id) {
		return nil, apperr.NotFound("client")
	}
	c, err := s.Repo.Patch(ctx, id, fn)
	if err != nil {
		return nil, notFound(err, "client")
	}
	return c, nil
}
