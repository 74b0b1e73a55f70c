package models

import "time"

// ChildProfile belongs to exactly one parent and is only ever created,
// edited or deleted by that parent.
type ChildProfile struct {
	ID         string
	ParentID   string
	Name       string
	Birthdate  time.Time
	HeightCm   *float64
	WeightKg   *float64
	Milestones []Milestone
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Milestone is a dated note on a child profile ("first steps", etc.)
type Milestone struct {
	Label string    `json:"label"`
	Date  time.Time `json:"date"`
}

// Age returns the child's age in whole years at the given time.
func (c *ChildProfile) Age(now time.Time) int {
	years := now.Year() - c.Birthdate.Year()
	if now.YearDay() < c.Birthdate.YearDay() {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
