package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChecklistsVersion is the current document version stored in clients.checklists.
const ChecklistsVersion = 1

type ChecklistStage string

const (
	ChecklistContact      ChecklistStage = "contact"
	ChecklistVisite       ChecklistStage = "visite"
	ChecklistDevis        ChecklistStage = "devis"
	ChecklistIntervention ChecklistStage = "intervention"
)

type ContactChecklist struct {
	Q1 bool `json:"q1"` // first call made
	Q2 bool `json:"q2"` // needs qualified
	Q3 bool `json:"q3"` // visite scheduled
}

type VisiteChecklist struct {
	Q1 bool `json:"q1"` // site visited
	Q2 bool `json:"q2"` // photos taken
	Q3 bool `json:"q3"` // measurements taken
	Q4 bool `json:"q4"` // tech report signed
}

type DevisChecklist struct {
	Q1 bool `json:"q1"` // quote drafted
	Q2 bool `json:"q2"` // quote sent
	Q3 bool `json:"q3"` // quote accepted
	Q4 bool `json:"q4"` // deposit received
}

type InterventionChecklist struct {
	Q1 bool `json:"q1"` // appointment booked
	Q2 bool `json:"q2"` // parts ordered
	Q3 bool `json:"q3"` // work done
	Q4 bool `json:"q4"` // invoice sent
}

// Checklists is the per-stage task list kept on a client. The set of stages
// and items is closed: Set rejects anything outside the template.
type Checklists struct {
	Version      int                   `json:"version"`
	Contact      ContactChecklist      `json:"contact"`
	Visite       VisiteChecklist       `json:"visite"`
	Devis        DevisChecklist        `json:"devis"`
	Intervention InterventionChecklist `json:"intervention"`
}

func NewChecklists() Checklists {
	return Checklists{Version: ChecklistsVersion}
}

func (c *Checklists) items(stage ChecklistStage) map[string]*bool {
	switch stage {
	case ChecklistContact:
		return map[string]*bool{"q1": &c.Contact.Q1, "q2": &c.Contact.Q2, "q3": &c.Contact.Q3}
	case ChecklistVisite:
		return map[string]*bool{"q1": &c.Visite.Q1, "q2": &c.Visite.Q2, "q3": &c.Visite.Q3, "q4": &c.Visite.Q4}
	case ChecklistDevis:
		return map[string]*bool{"q1": &c.Devis.Q1, "q2": &c.Devis.Q2, "q3": &c.Devis.Q3, "q4": &c.Devis.Q4}
	case ChecklistIntervention:
		return map[string]*bool{"q1": &c.Intervention.Q1, "q2": &c.Intervention.Q2, "q3": &c.Intervention.Q3, "q4": &c.Intervention.Q4}
	}
	return nil
}

// Set checks or unchecks one item.
func (c *Checklists) Set(stage ChecklistStage, item string, checked bool) error {
	items := c.items(stage)
	if items == nil {
		return fmt.Errorf("unknown checklist stage %q", stage)
	}
	p, ok := items[item]
	if !ok {
		return fmt.Errorf("unknown checklist item %s.%s", stage, item)
	}
	*p = checked
	return nil
}

// Checked reports the state of one item; unknown items are unchecked.
func (c Checklists) Checked(stage ChecklistStage, item string) bool {
	p, ok := c.items(stage)[item]
	return ok && *p
}

// UnmarshalJSON accepts both the current document and the legacy free-form
// map of stage -> item -> checked, which has no version key. Legacy entries
// outside the template are dropped.
func (c *Checklists) UnmarshalJSON(data []byte) error {
	var head struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("checklists: %w", err)
	}

	if head.Version != nil {
		if *head.Version > ChecklistsVersion {
			return fmt.Errorf("checklists: unsupported version %d", *head.Version)
		}
		type plain Checklists
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("checklists: %w", err)
		}
		*c = Checklists(p)
		c.Version = ChecklistsVersion
		return nil
	}

	var legacy map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &legacy); err != nil {
		return fmt.Errorf("checklists: legacy document: %w", err)
	}
	out := NewChecklists()
	for stage, items := range legacy {
		for item, raw := range items {
			_ = out.Set(ChecklistStage(stage), item, legacyChecked(raw))
		}
	}
	*c = out
	return nil
}

// legacyChecked reads an item that was stored either as a bare boolean or as
// an object with a "checked" flag.
func legacyChecked(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var obj struct {
		Checked bool `json:"checked"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Checked
	}
	return false
}

// WorkflowStateVersion is the current version of clients.workflow_state.
const WorkflowStateVersion = 1

// WorkflowState records how the client answered its latest quote.
type WorkflowState struct {
	Version         int        `json:"version"`
	DevisSent       bool       `json:"devis_sent"`
	DevisSentAt     *time.Time `json:"devis_sent_at,omitempty"`
	DevisAccepted   bool       `json:"devis_accepted"`
	DevisAcceptedAt *time.Time `json:"devis_accepted_at,omitempty"`
	DevisRefused    bool       `json:"devis_refused"`
	DevisRefusedAt  *time.Time `json:"devis_refused_at,omitempty"`
}

func (w *WorkflowState) UnmarshalJSON(data []byte) error {
	type plain WorkflowState
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("workflow state: %w", err)
	}
	if p.Version > WorkflowStateVersion {
		return fmt.Errorf("workflow state: unsupported version %d", p.Version)
	}
	*w = WorkflowState(p)
	w.Version = WorkflowStateVersion
	return nil
}

// MarkSent records that a quote went out at t.
func (w *WorkflowState) MarkSent(t time.Time) {
	w.Version = WorkflowStateVersion
	w.DevisSent = true
	w.DevisSentAt = &t
}

// MarkAccepted records the client's acceptance. A later quote can overturn an
// earlier refusal.
func (w *WorkflowState) MarkAccepted(t time.Time) {
	w.Version = WorkflowStateVersion
	w.DevisAccepted = true
	w.DevisAcceptedAt = &t
	w.DevisRefused = false
	w.DevisRefusedAt = nil
}

func (w *WorkflowState) MarkRefused(t time.Time) {
	w.Version = WorkflowStateVersion
	w.DevisRefused = true
	w.DevisRefusedAt = &t
}
