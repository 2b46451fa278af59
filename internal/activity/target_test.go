package activity

import (
	"errors"
	"testing"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantOrg  string
		wantRepo string
		wantErr  bool
	}{
		{
			name:    "bare org",
			input:   "jupyter",
			wantOrg: "jupyter",
		},
		{
			name:     "org and repo",
			input:    "jupyter/notebook",
			wantOrg:  "jupyter",
			wantRepo: "notebook",
		},
		{
			name:     "https url",
			input:    "https://github.com/jupyter/notebook",
			wantOrg:  "jupyter",
			wantRepo: "notebook",
		},
		{
			name:    "https org url with trailing slash",
			input:   "https://github.com/jupyter/",
			wantOrg: "jupyter",
		},
		{
			name:     "ssh url",
			input:    "git@github.com:jupyter/notebook.git",
			wantOrg:  "jupyter",
			wantRepo: "notebook",
		},
		{
			name:     "git suffix trimmed",
			input:    "https://github.com/jupyter/notebook.git",
			wantOrg:  "jupyter",
			wantRepo: "notebook",
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "too many segments",
			input:   "a/b/c",
			wantErr: true,
		},
		{
			name:    "url with empty path",
			input:   "https://github.com/",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := ParseTarget(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTarget(%q) expected error, got %v", tt.input, target)
				}
				if !errors.Is(err, ErrInvalidTarget) {
					t.Errorf("error should wrap ErrInvalidTarget, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTarget(%q) error = %v", tt.input, err)
			}
			if target.Org != tt.wantOrg {
				t.Errorf("Org = %q, want %q", target.Org, tt.wantOrg)
			}
			if target.Repo != tt.wantRepo {
				t.Errorf("Repo = %q, want %q", target.Repo, tt.wantRepo)
			}
		})
	}
}
