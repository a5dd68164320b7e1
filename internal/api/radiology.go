package api

import (
	"context"
	"fmt"
	"net/url"
)

// RadiologyOrder is an imaging order placed by a clinician.
type RadiologyOrder struct {
	ID          string `json:"id"`
	PatientID   string `json:"patient_id"`
	PatientName string `json:"patient_name,omitempty"`
	Modality    string `json:"modality"` // x-ray, ct, mri, ultrasound
	BodyPart    string `json:"body_part,omitempty"`
	Priority    string `json:"priority,omitempty"` // routine, urgent, stat
	Status      string `json:"status"`             // ordered, in_progress, reported
	OrderedBy   string `json:"ordered_by,omitempty"`
	OrderedAt   string `json:"ordered_at,omitempty"`
}

// ListRadiologyOrdersRequest is the request parameters for
// GET /api/radiology/orders.
type ListRadiologyOrdersRequest struct {
	Status   string
	Modality string
}

// ListRadiologyOrdersResponse is the response from GET /api/radiology/orders.
type ListRadiologyOrdersResponse struct {
	Orders []RadiologyOrder `json:"orders"`
}

// ListRadiologyOrders lists imaging orders for the worklist view.
func (c *Client) ListRadiologyOrders(ctx context.Context, req *ListRadiologyOrdersRequest) (*ListRadiologyOrdersResponse, error) {
	q := url.Values{}
	if req != nil {
		if req.Status != "" {
			q.Set("status", req.Status)
		}
		if req.Modality != "" {
			q.Set("modality", req.Modality)
		}
	}

	var resp ListRadiologyOrdersResponse
	if err := c.get(ctx, "/api/radiology/orders", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateRadiologyOrderRequest is the request body for
// POST /api/radiology/orders.
type CreateRadiologyOrderRequest struct {
	PatientID string `json:"patient_id"`
	Modality  string `json:"modality"`
	BodyPart  string `json:"body_part,omitempty"`
	Priority  string `json:"priority,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// RadiologyOrderResponse wraps a single imaging order.
type RadiologyOrderResponse struct {
	Order RadiologyOrder `json:"order"`
}

// CreateRadiologyOrder places an imaging order.
func (c *Client) CreateRadiologyOrder(ctx context.Context, req *CreateRadiologyOrderRequest) (*RadiologyOrderResponse, error) {
	var resp RadiologyOrderResponse
	if err := c.post(ctx, "/api/radiology/orders", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitRadiologyReportRequest is the request body for
// POST /api/radiology/orders/{id}/report.
type SubmitRadiologyReportRequest struct {
	Findings   string `json:"findings"`
	Impression string `json:"impression"`
}

// SubmitRadiologyReport attaches a report to an imaging order.
func (c *Client) SubmitRadiologyReport(ctx context.Context, orderID string, req *SubmitRadiologyReportRequest) (*RadiologyOrderResponse, error) {
	var resp RadiologyOrderResponse
	path := fmt.Sprintf("/api/radiology/orders/%s/report", url.PathEscape(orderID))
	if err := c.post(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IRProcedure is an interventional-radiology procedure booking.
type IRProcedure struct {
	ID            string `json:"id"`
	PatientID     string `json:"patient_id"`
	PatientName   string `json:"patient_name,omitempty"`
	ProcedureType string `json:"procedure_type"`
	ScheduledAt   string `json:"scheduled_at,omitempty"`
	Status        string `json:"status"` // requested, scheduled, completed
	ConsentSigned bool   `json:"consent_signed"`
	LabsReviewed  bool   `json:"labs_reviewed"`
	NPOConfirmed  bool   `json:"npo_confirmed"`
}

// ListIRProceduresResponse is the response from
// GET /api/interventional-radiology/procedures.
type ListIRProceduresResponse struct {
	Procedures []IRProcedure `json:"procedures"`
}

// ListIRProcedures lists interventional-radiology procedures.
func (c *Client) ListIRProcedures(ctx context.Context, status string) (*ListIRProceduresResponse, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}

	var resp ListIRProceduresResponse
	if err := c.get(ctx, "/api/interventional-radiology/procedures", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScheduleIRProcedureRequest is the request body for
// POST /api/interventional-radiology/procedures.
type ScheduleIRProcedureRequest struct {
	PatientID     string `json:"patient_id"`
	ProcedureType string `json:"procedure_type"`
	ScheduledAt   string `json:"scheduled_at,omitempty"`
}

// IRProcedureResponse wraps a single procedure.
type IRProcedureResponse struct {
	Procedure IRProcedure `json:"procedure"`
}

// ScheduleIRProcedure books an interventional-radiology procedure.
func (c *Client) ScheduleIRProcedure(ctx context.Context, req *ScheduleIRProcedureRequest) (*IRProcedureResponse, error) {
	var resp IRProcedureResponse
	if err := c.post(ctx, "/api/interventional-radiology/procedures", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateIRChecklistRequest is the request body for
// PUT /api/interventional-radiology/procedures/{id}/checklist.
// Nil fields are left unchanged.
type UpdateIRChecklistRequest struct {
	ConsentSigned *bool `json:"consent_signed,omitempty"`
	LabsReviewed  *bool `json:"labs_reviewed,omitempty"`
	NPOConfirmed  *bool `json:"npo_confirmed,omitempty"`
}

// UpdateIRChecklist updates the pre-procedure checklist.
func (c *Client) UpdateIRChecklist(ctx context.Context, procedureID string, req *UpdateIRChecklistRequest) (*IRProcedureResponse, error) {
	var resp IRProcedureResponse
	path := fmt.Sprintf("/api/interventional-radiology/procedures/%s/checklist", url.PathEscape(procedureID))
	if err := c.put(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
