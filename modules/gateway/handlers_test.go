package gateway

import (
	"testing"

	"github.com/prusotamkrydv78/SathiCare-sub000/domain/consultation"
	"github.com/prusotamkrydv78/SathiCare-sub000/modules/appointments"
)

func TestAuthorized(t *testing.T) {
	appt := &appointments.Appointment{
		ID:        "A1",
		PatientID: "patient-1",
		DoctorID:  "doctor-1",
	}

	tests := []struct {
		name   string
		userID string
		role   consultation.Role
		want   bool
	}{
		{
			name:   "patient joins as patient",
			userID: "patient-1",
			role:   consultation.RolePatient,
			want:   true,
		},
		{
			name:   "doctor joins as doctor",
			userID: "doctor-1",
			role:   consultation.RoleDoctor,
			want:   true,
		},
		{
			name:   "stranger joins as patient",
			userID: "someone-else",
			role:   consultation.RolePatient,
			want:   false,
		},
		{
			name:   "patient claims the doctor role",
			userID: "patient-1",
			role:   consultation.RoleDoctor,
			want:   false,
		},
		{
			name:   "doctor claims the patient role",
			userID: "doctor-1",
			role:   consultation.RolePatient,
			want:   false,
		},
		{
			name:   "unknown role",
			userID: "patient-1",
			role:   consultation.Role("admin"),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authorized(appt, tt.userID, tt.role); got != tt.want {
				t.Errorf("authorized(%q, %q) = %v, want %v", tt.userID, tt.role, got, tt.want)
			}
		})
	}
}
