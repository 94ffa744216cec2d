package visitors

import "testing"

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"jane@example.com", true},
		{"jane.doe+tag@sub.example.io", true},
		{"not-an-email", false},
		{"missing@dot", false},
		{"@example.com", false},
		{"spaces in@example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidEmail(tt.email); got != tt.want {
			t.Errorf("ValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Jane@Example.COM "); got != "jane@example.com" {
		t.Errorf("unexpected normalized email: %q", got)
	}
}

func TestCaptureRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CaptureRequest
		wantErr error
	}{
		{"valid", CaptureRequest{Name: "Jane", Email: "jane@example.com", Role: RoleRecruiter}, nil},
		{"valid without role", CaptureRequest{Name: "Jane", Email: "jane@example.com"}, nil},
		{"missing name", CaptureRequest{Email: "jane@example.com"}, ErrMissingName},
		{"missing email", CaptureRequest{Name: "Jane"}, ErrMissingEmail},
		{"bad email", CaptureRequest{Name: "Jane", Email: "not-an-email"}, ErrInvalidEmail},
		{"bad role", CaptureRequest{Name: "Jane", Email: "jane@example.com", Role: "ceo"}, ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
