package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Patient is a registered patient record.
type Patient struct {
	ID          string `json:"id"`
	MRN         string `json:"mrn"` // Medical record number, server-assigned
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Region      string `json:"region,omitempty"`
	Address     string `json:"address,omitempty"`
	NHISNumber  string `json:"nhis_number,omitempty"` // National Health Insurance Scheme
	CreatedAt   string `json:"created_at,omitempty"`
}

// ListPatientsRequest is the request parameters for GET /api/patients.
type ListPatientsRequest struct {
	Search   string
	Page     int
	PageSize int
}

// ListPatientsResponse is the response from GET /api/patients.
type ListPatientsResponse struct {
	Patients []Patient `json:"patients"`
	Total    int       `json:"total"`
}

// ListPatients lists patients, optionally filtered by a search term.
func (c *Client) ListPatients(ctx context.Context, req *ListPatientsRequest) (*ListPatientsResponse, error) {
	q := url.Values{}
	if req != nil {
		if req.Search != "" {
			q.Set("search", req.Search)
		}
		if req.Page > 0 {
			q.Set("page", strconv.Itoa(req.Page))
		}
		if req.PageSize > 0 {
			q.Set("page_size", strconv.Itoa(req.PageSize))
		}
	}

	var resp ListPatientsResponse
	if err := c.get(ctx, "/api/patients", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PatientResponse wraps a single patient record.
type PatientResponse struct {
	Patient Patient `json:"patient"`
}

// GetPatient fetches a patient by id. Returns nil if not found (404).
func (c *Client) GetPatient(ctx context.Context, patientID string) (*PatientResponse, error) {
	var resp PatientResponse
	path := "/api/patients/" + url.PathEscape(patientID)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &resp, nil
}

// RegisterPatientRequest is the request body for POST /api/patients.
// The server validates demographics and assigns the MRN.
type RegisterPatientRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Region      string `json:"region,omitempty"`
	Address     string `json:"address,omitempty"`
	NHISNumber  string `json:"nhis_number,omitempty"`
}

// RegisterPatient registers a new patient.
func (c *Client) RegisterPatient(ctx context.Context, req *RegisterPatientRequest) (*PatientResponse, error) {
	var resp PatientResponse
	if err := c.post(ctx, "/api/patients", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdatePatientRequest is the request body for PUT /api/patients/{id}.
// Empty fields are left unchanged by the server.
type UpdatePatientRequest struct {
	Phone      string `json:"phone,omitempty"`
	Region     string `json:"region,omitempty"`
	Address    string `json:"address,omitempty"`
	NHISNumber string `json:"nhis_number,omitempty"`
}

// UpdatePatient updates a patient's contact and insurance details.
func (c *Client) UpdatePatient(ctx context.Context, patientID string, req *UpdatePatientRequest) (*PatientResponse, error) {
	var resp PatientResponse
	path := fmt.Sprintf("/api/patients/%s", url.PathEscape(patientID))
	if err := c.put(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
