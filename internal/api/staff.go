package api

import (
	"context"
	"fmt"
	"net/url"
)

// StaffMember is a hospital staff account managed by IT administration.
type StaffMember struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	DepartmentID string `json:"department_id,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Active       bool   `json:"active"`
}

// ListStaffRequest is the request parameters for GET /api/staff.
type ListStaffRequest struct {
	DepartmentID string
	Role         string
}

// ListStaffResponse is the response from GET /api/staff.
type ListStaffResponse struct {
	Staff []StaffMember `json:"staff"`
}

// ListStaff lists staff accounts, optionally filtered by department or role.
func (c *Client) ListStaff(ctx context.Context, req *ListStaffRequest) (*ListStaffResponse, error) {
	q := url.Values{}
	if req != nil {
		if req.DepartmentID != "" {
			q.Set("department_id", req.DepartmentID)
		}
		if req.Role != "" {
			q.Set("role", req.Role)
		}
	}

	var resp ListStaffResponse
	if err := c.get(ctx, "/api/staff", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddStaffRequest is the request body for POST /api/staff.
type AddStaffRequest struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	DepartmentID string `json:"department_id,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// StaffResponse wraps a single staff member.
type StaffResponse struct {
	Staff StaffMember `json:"staff"`
}

// AddStaff creates a staff account.
func (c *Client) AddStaff(ctx context.Context, req *AddStaffRequest) (*StaffResponse, error) {
	var resp StaffResponse
	if err := c.post(ctx, "/api/staff", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeactivateStaff disables a staff account.
func (c *Client) DeactivateStaff(ctx context.Context, staffID string) (*StaffResponse, error) {
	var resp StaffResponse
	path := fmt.Sprintf("/api/staff/%s/deactivate", url.PathEscape(staffID))
	if err := c.post(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Department is a clinical or administrative department.
type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// ListDepartmentsResponse is the response from GET /api/departments.
type ListDepartmentsResponse struct {
	Departments []Department `json:"departments"`
}

// ListDepartments lists the facility's departments.
func (c *Client) ListDepartments(ctx context.Context) (*ListDepartmentsResponse, error) {
	var resp ListDepartmentsResponse
	if err := c.get(ctx, "/api/departments", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DepartmentPortalResponse is the response from
// GET /api/departments/{id}/portal - the at-a-glance numbers a department
// portal page renders.
type DepartmentPortalResponse struct {
	Department    Department `json:"department"`
	PatientCount  int        `json:"patient_count"`
	PendingOrders int        `json:"pending_orders"`
	StaffOnDuty   int        `json:"staff_on_duty"`
	AdmittedToday int        `json:"admitted_today"`
}

// DepartmentPortal fetches the portal summary for a department.
func (c *Client) DepartmentPortal(ctx context.Context, departmentID string) (*DepartmentPortalResponse, error) {
	var resp DepartmentPortalResponse
	path := fmt.Sprintf("/api/departments/%s/portal", url.PathEscape(departmentID))
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
