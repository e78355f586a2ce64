package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Student is a student record as returned by the backend.
type Student struct {
	ID               int64  `json:"id"`
	StudentID        string `json:"studentId"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	DateOfBirth      string `json:"dateOfBirth"`
	Gender           string `json:"gender"`
	Address          string `json:"address"`
	ParentName       string `json:"parentName"`
	ParentPhone      string `json:"parentPhone"`
	ParentEmail      string `json:"parentEmail"`
	EmergencyContact string `json:"emergencyContact"`
	EmergencyPhone   string `json:"emergencyPhone"`
	MedicalInfo      string `json:"medicalInfo,omitempty"`
	Allergies        string `json:"allergies,omitempty"`
	EnrollmentDate   string `json:"enrollmentDate"`
	IsActive         bool   `json:"isActive"`
	CreatedAt        string `json:"createdAt,omitempty"`
	UpdatedAt        string `json:"updatedAt,omitempty"`
}

// FullName returns the first and last name.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// Registration is the body of register and update requests.
type Registration struct {
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	DateOfBirth      string `json:"dateOfBirth"`
	Gender           string `json:"gender"`
	Address          string `json:"address"`
	ParentName       string `json:"parentName"`
	ParentPhone      string `json:"parentPhone"`
	ParentEmail      string `json:"parentEmail"`
	EmergencyContact string `json:"emergencyContact"`
	EmergencyPhone   string `json:"emergencyPhone"`
	MedicalInfo      string `json:"medicalInfo,omitempty"`
	Allergies        string `json:"allergies,omitempty"`
	EnrollmentDate   string `json:"enrollmentDate"`
}

// MessageResponse is the body of responses that only carry a message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ListStudents returns all active students.
func (c *Client) ListStudents(ctx context.Context) ([]Student, error) {
	var out []Student
	if err := c.get(ctx, c.endpoint("/"), nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// GetStudent returns a student by ID.
func (c *Client) GetStudent(ctx context.Context, id int64) (*Student, error) {
	var out Student
	if err := c.get(ctx, fmt.Sprintf("/students/%d", id), nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// RegisterStudent registers a new student.
func (c *Client) RegisterStudent(ctx context.Context, req *Registration) (*Student, error) {
	var out Student
	if err := c.post(ctx, c.endpoint("/register"), req, &out); err != nil {
		return nil, err
	}

	c.l.Infof("registered student %d", out.ID)

	return &out, nil
}

// UpdateStudent replaces a student's details.
func (c *Client) UpdateStudent(ctx context.Context, id int64, req *Registration) (*Student, error) {
	var out Student
	if err := c.put(ctx, fmt.Sprintf("/students/%d", id), req, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// DeleteStudent deactivates a student.
func (c *Client) DeleteStudent(ctx context.Context, id int64) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.delete(ctx, fmt.Sprintf("/students/%d", id), &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ReactivateStudent reactivates a deactivated student.
func (c *Client) ReactivateStudent(ctx context.Context, id int64) (*Student, error) {
	var out Student
	if err := c.put(ctx, fmt.Sprintf("/students/%d/reactivate", id), struct{}{}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// SearchStudents returns the students whose name matches.
func (c *Client) SearchStudents(ctx context.Context, name string) ([]Student, error) {
	var out []Student
	if err := c.get(ctx, c.endpoint("/search"), url.Values{"name": {name}}, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// StudentsByParentEmail returns the students registered with a parent email.
func (c *Client) StudentsByParentEmail(ctx context.Context, email string) ([]Student, error) {
	var out []Student
	if err := c.get(ctx, "/students/parent/"+url.PathEscape(email), nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// CountStudents returns the number of active students.
func (c *Client) CountStudents(ctx context.Context) (int, error) {
	var raw json.RawMessage
	if err := c.get(ctx, c.endpoint("/count"), nil, &raw); err != nil {
		return 0, err
	}

	return parseCount(raw)
}

// parseCount accepts a bare number or an object carrying count or total.
func parseCount(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var obj struct {
		Count int `json:"count"`
		Total int `json:"total"`
	}

	if err := json.Unmarshal(raw, &obj); err != nil {
		return 0, fmt.Errorf("failed to decode count %q: %w", string(raw), err)
	}

	if obj.Count != 0 {
		return obj.Count, nil
	}

	return obj.Total, nil
}
