package model

import "time"

// Appointment mirrors the scheduling backend's record of a patient visit.
type Appointment struct {
	ID        string
	PatientID string
	Scheduled time.Time
	Reason    string
	Status    string
}
