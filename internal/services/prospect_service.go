package services

import (
	"context"
	"fmt"
	"strings"

	"hvac-backend/internal/apperr"
	"hvac-backend/internal/logger"
	"hvac-backend/internal/models"
	"hvac-backend/internal/quoting"
	"hvac-backend/pkg/utils"
)

type ProspectService struct {
	Repo   ProspectStore
	Region string
}

func NewProspectService(repo ProspectStore, region string) *ProspectService {
	return &ProspectService{Repo: repo, Region: region}
}

// CreateProspect records a lead and opens a client for it at the start of the
// pipeline. Both rows are written together.
func (s *ProspectService) CreateProspect(ctx context.Context, req *models.CreateProspectRequest) (*models.ProspectWithClient, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Email) == "" && strings.TrimSpace(req.Phone) == "" {
		return nil, apperr.Validation("email or phone is required")
	}
	phone, err := normalizePhone(req.Phone, s.Region)
	if err != nil {
		return nil, err
	}

	source := req.Source
	if source == "" {
		source = "website"
	}

	prospect := &models.Prospect{
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:      phone,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		Source:     source,
		Message:    req.Message,
	}
	client := &models.Client{
		Name:          prospect.Name,
		Email:         prospect.Email,
		Phone:         prospect.Phone,
		Address:       prospect.Address,
		City:          prospect.City,
		PostalCode:    prospect.PostalCode,
		IsProspect:    true,
		CRMStage:      quoting.StageNouveau,
		Checklists:    models.NewChecklists(),
		WorkflowState: models.WorkflowState{Version: models.WorkflowStateVersion},
	}

	if err := s.Repo.CreateWithClient(ctx, prospect, client); err != nil {
		return nil, fmt.Errorf("create prospect: %w", err)
	}

	logger.For("prospects").WithFields(map[string]interface{}{
		"prospect_id": prospect.ID,
		"client_id":   client.ID,
		"source":      source,
	}).Info("prospect created")

	return &models.ProspectWithClient{Prospect: *prospect, Client: *client}, nil
}

func (s *ProspectService) ListProspects(ctx context.Context) ([]models.Prospect, error) {
	return s.Repo.List(ctx)
}
