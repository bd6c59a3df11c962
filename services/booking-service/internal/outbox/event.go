package outbox

import (
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
)

// Event is one row of the outbox. EventType doubles as the Kafka topic.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// AppointmentBooked is the payload of kafkax.TopicAppointmentBooked.
type AppointmentBooked struct {
	BookingID      string         `json:"booking_id"`
	DoctorID       int64          `json:"doctor_id"`
	DoctorName     string         `json:"doctor_name"`
	DepartmentID   int64          `json:"department_id"`
	DepartmentName string         `json:"department_name"`
	Date           calendar.Date  `json:"date"`
	Time           calendar.Clock `json:"time"`
	PatientName    string         `json:"patient_name"`
	OPNumber       string         `json:"op_number"`
	Email          string         `json:"email"`
	Mobile         string         `json:"mobile"`
	BookedAt       time.Time      `json:"booked_at"`
}
