package middleware

import "testing"

func TestValidAdminToken(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
		ok   bool
	}{
		{"match", "s3cret", "s3cret", true},
		{"mismatch", "wrong", "s3cret", false},
		{"empty header", "", "s3cret", false},
		{"empty configured token rejects everything", "anything", "", false},
		{"both empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidAdminToken(tt.got, tt.want); got != tt.ok {
				t.Fatalf("ValidAdminToken(%q, %q) = %v, want %v", tt.got, tt.want, got, tt.ok)
			}
		})
	}
}
