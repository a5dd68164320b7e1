package api

import (
	"context"
	"fmt"
	"net/url"
)

// Appointment is a scheduled patient visit.
type Appointment struct {
	ID            string `json:"id"`
	PatientID     string `json:"patient_id"`
	PatientName   string `json:"patient_name,omitempty"`
	DepartmentID  string `json:"department_id"`
	ClinicianID   string `json:"clinician_id,omitempty"`
	ClinicianName string `json:"clinician_name,omitempty"`
	ScheduledAt   string `json:"scheduled_at"`
	Status        string `json:"status"` // scheduled, completed, cancelled, no_show
	Reason        string `json:"reason,omitempty"`
}

// ListAppointmentsRequest is the request parameters for GET /api/appointments.
type ListAppointmentsRequest struct {
	Date         string // YYYY-MM-DD
	DepartmentID string
	ClinicianID  string
	Status       string
}

// ListAppointmentsResponse is the response from GET /api/appointments.
type ListAppointmentsResponse struct {
	Appointments []Appointment `json:"appointments"`
}

// ListAppointments lists appointments filtered by date, department,
// clinician, or status.
func (c *Client) ListAppointments(ctx context.Context, req *ListAppointmentsRequest) (*ListAppointmentsResponse, error) {
	q := url.Values{}
	if req != nil {
		if req.Date != "" {
			q.Set("date", req.Date)
		}
		if req.DepartmentID != "" {
			q.Set("department_id", req.DepartmentID)
		}
		if req.ClinicianID != "" {
			q.Set("clinician_id", req.ClinicianID)
		}
		if req.Status != "" {
			q.Set("status", req.Status)
		}
	}

	var resp ListAppointmentsResponse
	if err := c.get(ctx, "/api/appointments", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScheduleAppointmentRequest is the request body for POST /api/appointments.
type ScheduleAppointmentRequest struct {
	PatientID    string `json:"patient_id"`
	DepartmentID string `json:"department_id"`
	ClinicianID  string `json:"clinician_id,omitempty"`
	ScheduledAt  string `json:"scheduled_at"`
	Reason       string `json:"reason,omitempty"`
}

// AppointmentResponse wraps a single appointment.
type AppointmentResponse struct {
	Appointment Appointment `json:"appointment"`
}

// ScheduleAppointment books an appointment. Slot conflicts are rejected
// server-side.
func (c *Client) ScheduleAppointment(ctx context.Context, req *ScheduleAppointmentRequest) (*AppointmentResponse, error) {
	var resp AppointmentResponse
	if err := c.post(ctx, "/api/appointments", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelAppointmentRequest is the request body for
// POST /api/appointments/{id}/cancel.
type CancelAppointmentRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CancelAppointment cancels an appointment.
func (c *Client) CancelAppointment(ctx context.Context, appointmentID string, req *CancelAppointmentRequest) (*AppointmentResponse, error) {
	var resp AppointmentResponse
	path := fmt.Sprintf("/api/appointments/%s/cancel", url.PathEscape(appointmentID))
	if err := c.post(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RescheduleAppointmentRequest is the request body for
// POST /api/appointments/{id}/reschedule.
type RescheduleAppointmentRequest struct {
	ScheduledAt string `json:"scheduled_at"`
}

// RescheduleAppointment moves an appointment to a new time.
func (c *Client) RescheduleAppointment(ctx context.Context, appointmentID string, req *RescheduleAppointmentRequest) (*AppointmentResponse, error) {
	var resp AppointmentResponse
	path := fmt.Sprintf("/api/appointments/%s/reschedule", url.PathEscape(appointmentID))
	if err := c.post(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
