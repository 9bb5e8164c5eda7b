package validation

import "testing"

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{
			name:    "valid email",
			email:   "test@example.com",
			wantErr: false,
		},
		{
			name:    "valid email with subdomain",
			email:   "user@mail.example.com",
			wantErr: false,
		},
		{
			name:    "valid email with plus",
			email:   "user+tag@example.com",
			wantErr: false,
		},
		{
			name:    "missing @",
			email:   "testexample.com",
			wantErr: true,
		},
		{
			name:    "missing domain",
			email:   "test@",
			wantErr: true,
		},
		{
			name:    "missing local part",
			email:   "@example.com",
			wantErr: true,
		},
		{
			name:    "empty string",
			email:   "",
			wantErr: true,
		},
		{
			name:    "spaces in email",
			email:   "test @example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "valid name",
			input:   "John Doe",
			wantErr: false,
		},
		{
			name:    "single name",
			input:   "John",
			wantErr: false,
		},
		{
			name:    "empty name",
			input:   "",
			wantErr: true,
		},
		{
			name:    "name too short",
			input:   "J",
			wantErr: true,
		},
		{
			name:    "name with hyphen",
			input:   "Mary-Jane",
			wantErr: false,
		},
		{
			name:    "name with apostrophe",
			input:   "O'Brien",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "valid password",
			password: "password123",
			wantErr:  false,
		},
		{
			name:     "password exactly 8 characters",
			password: "pass1234",
			wantErr:  false,
		},
		{
			name:     "password too short",
			password: "pass123",
			wantErr:  true,
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  true,
		},
		{
			name:     "long password",
			password: "thisIsAVeryLongPasswordThatShouldBeValid123",
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDateKey(t *testing.T) {
	tests := []struct {
		name    string
		dateKey string
		wantErr bool
	}{
		{
			name:    "valid date",
			dateKey: "2026-09-12",
			wantErr: false,
		},
		{
			name:    "empty date",
			dateKey: "",
			wantErr: true,
		},
		{
			name:    "wrong format",
			dateKey: "12/09/2026",
			wantErr: true,
		},
		{
			name:    "impossible date",
			dateKey: "2026-02-30",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDateKey(tt.dateKey)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDateKey(%q) error = %v, wantErr %v", tt.dateKey, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCapacity(t *testing.T) {
	zero := 0
	one := 1
	tests := []struct {
		name     string
		capacity *int
		wantErr  bool
	}{
		{
			name:     "nil capacity is unlimited",
			capacity: nil,
			wantErr:  false,
		},
		{
			name:     "capacity of one",
			capacity: &one,
			wantErr:  false,
		},
		{
			name:     "zero capacity",
			capacity: &zero,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCapacity(tt.capacity)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCapacity() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSlotConfig(t *testing.T) {
	tests := []struct {
		name        string
		slotCount   int
		slotMinutes int
		wantErr     bool
	}{
		{
			name:        "no lineup",
			slotCount:   0,
			slotMinutes: 0,
			wantErr:     false,
		},
		{
			name:        "valid lineup",
			slotCount:   10,
			slotMinutes: 5,
			wantErr:     false,
		},
		{
			name:        "slots without duration",
			slotCount:   10,
			slotMinutes: 0,
			wantErr:     true,
		},
		{
			name:        "negative slot count",
			slotCount:   -1,
			slotMinutes: 5,
			wantErr:     true,
		},
		{
			name:        "too many slots",
			slotCount:   101,
			slotMinutes: 5,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSlotConfig(tt.slotCount, tt.slotMinutes)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSlotConfig(%d, %d) error = %v, wantErr %v", tt.slotCount, tt.slotMinutes, err, tt.wantErr)
			}
		})
	}
}
