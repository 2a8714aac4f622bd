package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveNameFromEmail(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		wantFirst string
		wantLast  string
	}{
		{name: "dot separated", email: "jean.martin@example.org", wantFirst: "Jean", wantLast: "Martin"},
		{name: "underscore separated", email: "marie_curie@example.org", wantFirst: "Marie", wantLast: "Curie"},
		{name: "single word", email: "admin@example.org", wantFirst: "Admin", wantLast: "User"},
		{name: "plus tag uses last segment", email: "jean+signup@example.org", wantFirst: "Jean", wantLast: "Signup"},
		{name: "multiple separators keeps first and last", email: "a.b.c@example.org", wantFirst: "A", wantLast: "C"},
		{name: "no at sign", email: "jean.martin", wantFirst: "Jean", wantLast: "Martin"},
		{name: "empty local part", email: "@example.org", wantFirst: "User", wantLast: "User"},
		{name: "unicode first letter", email: "élodie.durand@example.org", wantFirst: "Élodie", wantLast: "Durand"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := DeriveNameFromEmail(tt.email)
			assert.Equal(t, tt.wantFirst, first)
			assert.Equal(t, tt.wantLast, last)
		})
	}
}
