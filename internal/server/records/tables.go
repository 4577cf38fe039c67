package records

import "github.com/dmitrijs2005/mentorship/internal/server/models"

var Students = Table[models.Student]{
	Name:    "students",
	Columns: []string{"id", "full_name", "email", "created_at"},
	OrderBy: "created_at",
	Key:     func(s *models.Student) string { return s.ID },
	Values: func(s *models.Student) []any {
		return []any{s.ID, s.FullName, s.Email, s.CreatedAt}
	},
	Targets: func(s *models.Student) []any {
		return []any{&s.ID, &s.FullName, &s.Email, Timestamp(&s.CreatedAt)}
	},
}

var Organizations = Table[models.Organization]{
	Name:    "organizations",
	Columns: []string{"id", "name", "email", "description", "created_at"},
	OrderBy: "created_at",
	Key:     func(o *models.Organization) string { return o.ID },
	Values: func(o *models.Organization) []any {
		return []any{o.ID, o.Name, o.Email, o.Description, o.CreatedAt}
	},
	Targets: func(o *models.Organization) []any {
		return []any{&o.ID, &o.Name, &o.Email, &o.Description, Timestamp(&o.CreatedAt)}
	},
}
