package quoting

// Stage is a client's column in the CRM pipeline.
type Stage string

const (
	StageNouveau      Stage = "nouveau"
	StageContact      Stage = "contact"
	StageVisite       Stage = "visite"
	StageDevis        Stage = "devis"
	StageIntervention Stage = "intervention"
	StageAtelier      Stage = "atelier"
	StageTermine      Stage = "termine"
	StageRefuse       Stage = "refuse"
)

// pipeline is the forward order of the open stages. StageRefuse sits outside it.
var pipeline = []Stage{
	StageNouveau,
	StageContact,
	StageVisite,
	StageDevis,
	StageIntervention,
	StageAtelier,
	StageTermine,
}

func (s Stage) rank() int {
	for i, p := range pipeline {
		if p == s {
			return i
		}
	}
	return -1
}

func (s Stage) Valid() bool {
	return s == StageRefuse || s.rank() >= 0
}

// Stages returns every known stage in display order.
func Stages() []Stage {
	out := make([]Stage, 0, len(pipeline)+1)
	out = append(out, pipeline...)
	return append(out, StageRefuse)
}

// advanceTo moves current forward to target; it never moves a client backwards.
// A refused client re-enters the pipeline.
func advanceTo(current, target Stage) Stage {
	if current == StageRefuse || current.rank() < target.rank() {
		return target
	}
	return current
}

// StageAfter returns the CRM stage a client should sit in once its quote has
// reached status. Accepted quotes move the client to intervention unless the
// job is already further along; refused quotes park it in refuse; a sent quote
// brings it to at least devis.
func StageAfter(current Stage, status Status) Stage {
	if !current.Valid() {
		current = StageNouveau
	}
	switch status {
	case StatusSent:
		return advanceTo(current, StageDevis)
	case StatusAccepted:
		return advanceTo(current, StageIntervention)
	case StatusRefused:
		return StageRefuse
	}
	return current
}
