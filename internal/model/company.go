package model

import "time"

// Company is a client company under recurring review. Tier is recomputed
// by the tier-sync job and must track StartDate/AdSpend.
type Company struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	StartDate time.Time `db:"start_date"`
	AdSpend   int64     `db:"ad_spend"` // recurring monthly spend, whole currency units
	Tier      Tier      `db:"tier"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
