package model

import "time"

// Reference entities consumed by mapping logic. Full CRUD lifecycle is out of
// scope; they are seeded at startup and listed for selection.

type Project struct {
	CreatedAt   time.Time
	Name        string
	Description string
	DomainID    *int64
	ID          int64
}

type Tester struct {
	CreatedAt time.Time
	Name      string
	Status    string
	ID        int64
}

type Domain struct {
	CreatedAt time.Time
	Name      string
	ID        int64
}
