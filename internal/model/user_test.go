package model

import "testing"

func strPtr(s string) *string { return &s }

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"full name", User{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{"first only", User{FirstName: "Ada"}, "Ada"},
		{"last only", User{LastName: "Lovelace"}, "Lovelace"},
		{"falls back to email local part", User{Email: "lovela@rpi.edu"}, "lovela"},
		{"email without at sign", User{Email: "broken"}, "broken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsSetUp(t *testing.T) {
	complete := User{
		FirstName:      "Ada",
		LastName:       "Lovelace",
		DiscordUserID:  strPtr("111"),
		GitHubUsername: strPtr("ada"),
	}
	if !complete.IsSetUp() {
		t.Error("complete profile should be set up")
	}

	missing := []struct {
		name   string
		mutate func(*User)
	}{
		{"no first name", func(u *User) { u.FirstName = "" }},
		{"no last name", func(u *User) { u.LastName = "" }},
		{"no discord link", func(u *User) { u.DiscordUserID = nil }},
		{"no github link", func(u *User) { u.GitHubUsername = nil }},
	}

	for _, tt := range missing {
		t.Run(tt.name, func(t *testing.T) {
			u := complete
			tt.mutate(&u)
			if u.IsSetUp() {
				t.Error("profile with a missing piece should not be set up")
			}
		})
	}
}
