package secretservice

import (
	"os"
	"strings"

	"github.com/godbus/dbus/v5"
)

// Backend kinds reported by Kind.
const (
	KindNone          = "none"
	KindSecretService = "secret-service"
	KindGnomeKeyring  = "gnome-keyring"
	KindKWallet       = "kwallet"
)

// busOwners captures ownership of the bus names relevant to backend
// classification.
type busOwners struct {
	Secrets      string
	KWalletd5    string
	KWalletd6    string
	GnomeKeyring bool
}

// Kind reports which daemon currently answers the Secret Service bus name.
func (c *Client) Kind() string {
	conn, err := sessionBus()
	if err != nil {
		return KindNone
	}
	return classify(lookupOwners(conn))
}

// Available reports whether secrets can be stored without prompting the
// user. KWallet answers the API inside KDE sessions but throws wallet
// prompts at callers outside one, so it only counts inside a KDE session.
func (c *Client) Available() bool {
	switch c.Kind() {
	case KindNone:
		return false
	case KindKWallet:
		return insideKDESession(os.Getenv)
	default:
		return true
	}
}

func lookupOwners(conn *dbus.Conn) busOwners {
	return busOwners{
		Secrets:      nameOwner(conn, busName),
		KWalletd5:    nameOwner(conn, "org.kde.kwalletd5"),
		KWalletd6:    nameOwner(conn, "org.kde.kwalletd6"),
		GnomeKeyring: nameHasOwner(conn, "org.gnome.keyring"),
	}
}

// classify determines the backend kind from bus name ownership. KWallet
// registers its org.kde name alongside the freedesktop one, which is how
// it is told apart from other providers.
func classify(o busOwners) string {
	if o.Secrets == "" {
		return KindNone
	}
	if o.Secrets == o.KWalletd5 || o.Secrets == o.KWalletd6 {
		return KindKWallet
	}
	if o.GnomeKeyring {
		return KindGnomeKeyring
	}
	return KindSecretService
}

// insideKDESession reports whether the current desktop session is KDE.
func insideKDESession(getenv func(string) string) bool {
	if getenv("KDE_FULL_SESSION") != "" {
		return true
	}
	for _, part := range strings.Split(getenv("XDG_CURRENT_DESKTOP"), ":") {
		if strings.EqualFold(part, "KDE") {
			return true
		}
	}
	return false
}

func nameOwner(conn *dbus.Conn, name string) string {
	var owner string
	err := conn.BusObject().Call("org.freedesktop.DBus.GetNameOwner", 0, name).Store(&owner)
	if err != nil {
		return ""
	}
	return owner
}

func nameHasOwner(conn *dbus.Conn, name string) bool {
	var has bool
	err := conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, name).Store(&has)
	if err != nil {
		return false
	}
	return has
}
