package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/Activ8Auto/ProAutoFill/internal/domain"
)

// fieldPair maps a backend diagnosis key to its local name.
type fieldPair struct {
	backend string
	local   string
}

// diagnosisFields is the only place diagnosis keys are renamed.
var diagnosisFields = []fieldPair{
	{backend: "teachings", local: "teaching_provided"},
	{backend: "prescribed_medications", local: "medications"},
	{backend: "physical_exams", local: "physical_exam"},
}

// ToLocal renames backend keys to local keys in place and returns raw. An
// existing non-null local key wins over the backend one.
func ToLocal(raw map[string]any) map[string]any {
	for _, f := range diagnosisFields {
		v, ok := raw[f.backend]
		if !ok {
			continue
		}
		if cur, exists := raw[f.local]; !exists || cur == nil {
			raw[f.local] = v
		}
		delete(raw, f.backend)
	}
	return raw
}

// ToBackend renames local keys to backend keys in place and returns raw.
func ToBackend(raw map[string]any) map[string]any {
	for _, f := range diagnosisFields {
		v, ok := raw[f.local]
		if !ok {
			continue
		}
		if cur, exists := raw[f.backend]; !exists || cur == nil {
			raw[f.backend] = v
		}
		delete(raw, f.local)
	}
	return raw
}

// decodeDiagnosis converts one backend object to a DiagnosisEntry.
func decodeDiagnosis(raw map[string]any) (domain.DiagnosisEntry, error) {
	var d domain.DiagnosisEntry
	data, err := json.Marshal(ToLocal(raw))
	if err != nil {
		return d, fmt.Errorf("encode diagnosis: %w", err)
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("decode diagnosis: %w", err)
	}
	normalizeDiagnosis(&d)
	return d, nil
}

func decodeDiagnoses(raws []map[string]any) ([]domain.DiagnosisEntry, error) {
	out := make([]domain.DiagnosisEntry, 0, len(raws))
	for _, raw := range raws {
		d, err := decodeDiagnosis(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// normalizeDiagnosis replaces nil lists with empty ones.
func normalizeDiagnosis(d *domain.DiagnosisEntry) {
	for _, list := range []*[]string{
		&d.CurrentMedications, &d.PhysicalExam, &d.LaboratoryTests, &d.TeachingProvided, &d.Medications,
	} {
		if *list == nil {
			*list = []string{}
		}
	}
}

// BackendShape returns d as the backend reports it.
func BackendShape(d domain.DiagnosisEntry) (map[string]any, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode diagnosis: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode diagnosis: %w", err)
	}
	return ToBackend(raw), nil
}
