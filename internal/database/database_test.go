package database

import "testing"

func TestPgxURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/db?sslmode=disable", "pgx5://u:p@localhost:5432/db?sslmode=disable"},
		{"postgresql://localhost/db", "pgx5://localhost/db"},
		{"pgx5://already/converted", "pgx5://already/converted"},
	}
	for _, tt := range tests {
		if got := pgxURL(tt.in); got != tt.want {
			t.Errorf("pgxURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
