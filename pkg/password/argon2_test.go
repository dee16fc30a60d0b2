package password

import (
	"strings"
	"testing"
)

func TestHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
		params   *Params
		wantErr  bool
	}{
		{
			name:     "hash with default params",
			password: "SecurePassword123!",
			params:   nil,
			wantErr:  false,
		},
		{
			name:     "hash with custom params",
			password: "AnotherPassword456!",
			params:   &Params{Memory: 32 * 1024, Iterations: 2, Parallelism: 1, SaltLength: 16, KeyLength: 32},
			wantErr:  false,
		},
		{
			name:     "hash empty password",
			password: "",
			params:   nil,
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := Hash(tt.password, tt.params)
			if (err != nil) != tt.wantErr {
				t.Errorf("Hash() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if hash == "" {
					t.Error("Hash() returned empty string")
				}
				if !strings.HasPrefix(hash, "$argon2id$v=19$") {
					t.Errorf("Hash() invalid format: %s", hash)
				}
			}
		})
	}
}

func TestVerify(t *testing.T) {
	password := "TestPassword123!"
	hash, err := Hash(password, nil)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	t.Run("correct password verifies", func(t *testing.T) {
		ok, err := Verify(password, hash)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if !ok {
			t.Error("Verify() = false for correct password")
		}
	})

	t.Run("wrong password fails", func(t *testing.T) {
		ok, err := Verify("WrongPassword", hash)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if ok {
			t.Error("Verify() = true for wrong password")
		}
	})

	t.Run("mangled hash rejected", func(t *testing.T) {
		if _, err := Verify(password, "not-a-hash"); err == nil {
			t.Error("Verify() accepted malformed hash")
		}
	})
}

func TestHash_SaltUniqueness(t *testing.T) {
	first, err := Hash("same-password", nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Hash("same-password", nil)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("two hashes of the same password share a salt")
	}
}
