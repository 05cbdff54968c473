package model

type Clinic struct {
	Base
	Name          string       `db:"name" json:"name"`
	Address       *string      `db:"address" json:"address,omitempty"`
	Phone         *string      `db:"phone" json:"phone,omitempty"`
	BusinessHours WeekSchedule `db:"business_hours" json:"business_hours"`
}
