package gateway

import (
	"context"
	"net/http"

	"github.com/Activ8Auto/ProAutoFill/internal/domain"
)

// ListDiagnoses returns the diagnosis library in local field naming.
func (c *Client) ListDiagnoses(ctx context.Context, token string) ([]domain.DiagnosisEntry, error) {
	var raws []map[string]any
	if err := c.do(ctx, call{
		endpoint: "diagnoses.list", method: http.MethodGet, path: "/diagnoses/", token: token, out: &raws,
	}); err != nil {
		return nil, err
	}
	return decodeDiagnoses(raws)
}

// CreateDiagnosis stores d and returns the backend's copy.
func (c *Client) CreateDiagnosis(ctx context.Context, token string, d domain.DiagnosisEntry) (domain.DiagnosisEntry, error) {
	return c.writeDiagnosis(ctx, call{
		endpoint: "diagnoses.create", method: http.MethodPost, path: "/diagnoses/", token: token, body: d,
	})
}

// UpdateDiagnosis replaces diagnosis id with d.
func (c *Client) UpdateDiagnosis(ctx context.Context, token, id string, d domain.DiagnosisEntry) (domain.DiagnosisEntry, error) {
	return c.writeDiagnosis(ctx, call{
		endpoint: "diagnoses.update", method: http.MethodPatch, path: "/diagnoses/" + pathID(id), token: token, body: d,
	})
}

// DeleteDiagnosis removes diagnosis id.
func (c *Client) DeleteDiagnosis(ctx context.Context, token, id string) error {
	return c.do(ctx, call{
		endpoint: "diagnoses.delete", method: http.MethodDelete, path: "/diagnoses/" + pathID(id), token: token,
	})
}

func (c *Client) writeDiagnosis(ctx context.Context, cl call) (domain.DiagnosisEntry, error) {
	var raw map[string]any
	cl.out = &raw
	if err := c.do(ctx, cl); err != nil {
		return domain.DiagnosisEntry{}, err
	}
	if raw == nil {
		d, _ := cl.body.(domain.DiagnosisEntry)
		return d, nil
	}
	return decodeDiagnosis(raw)
}
