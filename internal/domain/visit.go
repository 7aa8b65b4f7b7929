package domain

import (
	"time"

	"github.com/google/uuid"
)

// VisitRecord wraps patient attributes as a single-visit history entry, the
// shape the remote recommendation service expects.
type VisitRecord struct {
	PatientID string  `json:"patient_id"`
	Visits    []Visit `json:"visits"`
}

// Visit is one entry of a patient's visit history.
type Visit struct {
	VisitID string                 `json:"visit_id"`
	Date    string                 `json:"date"`
	Data    map[string]interface{} `json:"data"`
}

// RecommendationResponse is the remote service reply.
type RecommendationResponse struct {
	Success        bool   `json:"success"`
	Recommendation string `json:"recommendation,omitempty"`
	Error          string `json:"error,omitempty"`
}

// NewVisitRecord shapes patient data into a visit record dated at the given time.
// An empty patientID gets a generated one.
func NewVisitRecord(patientID string, patient PatientData, at time.Time) *VisitRecord {
	if patientID == "" {
		patientID = uuid.New().String()
	}
	return &VisitRecord{
		PatientID: patientID,
		Visits: []Visit{
			{
				VisitID: uuid.New().String(),
				Date:    at.UTC().Format("2006-01-02"),
				Data:    patient.ToMap(),
			},
		},
	}
}
