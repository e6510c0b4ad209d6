package secretservice

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		owners busOwners
		want   string
	}{
		{
			name:   "no daemon",
			owners: busOwners{},
			want:   KindNone,
		},
		{
			name:   "gnome keyring",
			owners: busOwners{Secrets: ":1.23", GnomeKeyring: true},
			want:   KindGnomeKeyring,
		},
		{
			name:   "kwallet 5 answering the secrets name",
			owners: busOwners{Secrets: ":1.40", KWalletd5: ":1.40"},
			want:   KindKWallet,
		},
		{
			name:   "kwallet 6 answering the secrets name",
			owners: busOwners{Secrets: ":1.41", KWalletd6: ":1.41"},
			want:   KindKWallet,
		},
		{
			name: "keepassxc with kwalletd running separately",
			// A separate kwalletd does not own the secrets name, so the
			// provider is whoever does.
			owners: busOwners{Secrets: ":1.50", KWalletd5: ":1.40"},
			want:   KindSecretService,
		},
		{
			name:   "unidentified provider",
			owners: busOwners{Secrets: ":1.60"},
			want:   KindSecretService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.owners); got != tt.want {
				t.Errorf("classify(%+v) = %q, want %q", tt.owners, got, tt.want)
			}
		})
	}
}

func TestInsideKDESession(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"no desktop vars", map[string]string{}, false},
		{"gnome", map[string]string{"XDG_CURRENT_DESKTOP": "GNOME"}, false},
		{"xfce", map[string]string{"XDG_CURRENT_DESKTOP": "XFCE"}, false},
		{"plain kde", map[string]string{"XDG_CURRENT_DESKTOP": "KDE"}, true},
		{"lowercase kde", map[string]string{"XDG_CURRENT_DESKTOP": "kde"}, true},
		{"colon separated list", map[string]string{"XDG_CURRENT_DESKTOP": "ubuntu:KDE"}, true},
		{"kde full session marker", map[string]string{"KDE_FULL_SESSION": "true"}, true},
		{"kde substring does not count", map[string]string{"XDG_CURRENT_DESKTOP": "NOTKDE"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(key string) string { return tt.env[key] }
			if got := insideKDESession(getenv); got != tt.want {
				t.Errorf("insideKDESession(%v) = %v, want %v", tt.env, got, tt.want)
			}
		})
	}
}
