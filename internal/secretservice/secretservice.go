// Package secretservice stores secrets through the freedesktop.org Secret
// Service D-Bus API, the interface behind GNOME Keyring, KWallet and
// KeePassXC.
package secretservice

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	busName         = "org.freedesktop.secrets"
	servicePath     = dbus.ObjectPath("/org/freedesktop/secrets")
	serviceIface    = "org.freedesktop.Secret.Service"
	collectionIface = "org.freedesktop.Secret.Collection"
	itemIface       = "org.freedesktop.Secret.Item"
	sessionIface    = "org.freedesktop.Secret.Session"

	// defaultCollection is the alias every daemon provides for the login
	// collection.
	defaultCollection = dbus.ObjectPath("/org/freedesktop/secrets/aliases/default")

	// noPrompt is the path daemons return when no prompt is required.
	noPrompt = dbus.ObjectPath("/")
)

// ErrLocked is returned when completing an operation would require the
// daemon to prompt the user. Prompting is left to the desktop; callers are
// expected to fall back to file storage instead.
var ErrLocked = errors.New("secret collection is locked")

var errNotFound = errors.New("secret not found")

// Hook for testing; production connects to the real session bus.
var sessionBus = dbus.SessionBus

// wireSecret mirrors the (oayays) Secret struct of the API.
type wireSecret struct {
	Session     dbus.ObjectPath
	Parameters  []byte
	Value       []byte
	ContentType string
}

// Client reads and writes a single secret identified by service and
// account attributes, the attribute scheme desktop keyring libraries use.
type Client struct {
	service string
	account string
}

// NewClient returns a client for the secret identified by service and
// account.
func NewClient(service, account string) *Client {
	return &Client{service: service, account: account}
}

func (c *Client) attributes() map[string]string {
	return map[string]string{
		"service":  c.service,
		"username": c.account,
	}
}

// label follows the format keyring libraries use, so the entry shows up
// with a recognizable name in Seahorse and KWalletManager.
func (c *Client) label() string {
	return fmt.Sprintf("Password for '%s' on '%s'", c.account, c.service)
}

// Get returns the stored secret value, or nil when nothing is stored.
func (c *Client) Get() ([]byte, error) {
	conn, err := sessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	session, err := openSession(conn)
	if err != nil {
		return nil, err
	}
	defer closeSession(conn, session)

	item, err := c.findItem(conn)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var sec wireSecret
	err = conn.Object(busName, item).Call(itemIface+".GetSecret", 0, session).Store(&sec)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}
	return sec.Value, nil
}

// Set stores the secret value, replacing any existing entry with the same
// attributes.
func (c *Client) Set(value []byte) error {
	conn, err := sessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	session, err := openSession(conn)
	if err != nil {
		return err
	}
	defer closeSession(conn, session)

	collection, err := unlockDefaultCollection(conn)
	if err != nil {
		return err
	}

	props := map[string]dbus.Variant{
		"org.freedesktop.Secret.Item.Label":      dbus.MakeVariant(c.label()),
		"org.freedesktop.Secret.Item.Attributes": dbus.MakeVariant(c.attributes()),
	}
	sec := wireSecret{
		Session:     session,
		Parameters:  []byte{},
		Value:       value,
		ContentType: "text/plain",
	}

	var item, prompt dbus.ObjectPath
	err = conn.Object(busName, collection).
		Call(collectionIface+".CreateItem", 0, props, sec, true).
		Store(&item, &prompt)
	if err != nil {
		return fmt.Errorf("failed to store secret: %w", err)
	}
	if prompt != noPrompt {
		return ErrLocked
	}
	return nil
}

// Delete removes the stored secret. Deleting a missing secret is not an
// error.
func (c *Client) Delete() error {
	conn, err := sessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	item, err := c.findItem(conn)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil
		}
		return err
	}

	var prompt dbus.ObjectPath
	if err := conn.Object(busName, item).Call(itemIface+".Delete", 0).Store(&prompt); err != nil {
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	return nil
}

// findItem locates the item matching the client's attributes, unlocking it
// when that needs no prompt.
func (c *Client) findItem(conn *dbus.Conn) (dbus.ObjectPath, error) {
	var unlocked, locked []dbus.ObjectPath
	err := conn.Object(busName, servicePath).
		Call(serviceIface+".SearchItems", 0, c.attributes()).
		Store(&unlocked, &locked)
	if err != nil {
		return "", fmt.Errorf("failed to search secrets: %w", err)
	}

	if len(unlocked) > 0 {
		return unlocked[0], nil
	}
	if len(locked) > 0 {
		paths, err := unlock(conn, locked[:1])
		if err != nil {
			return "", err
		}
		if len(paths) == 0 {
			return "", ErrLocked
		}
		return paths[0], nil
	}
	return "", errNotFound
}

// unlockDefaultCollection returns the default collection, unlocked. Login
// keyrings are normally unlocked at session start; anything that would
// need a prompt reports ErrLocked instead.
func unlockDefaultCollection(conn *dbus.Conn) (dbus.ObjectPath, error) {
	paths, err := unlock(conn, []dbus.ObjectPath{defaultCollection})
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", ErrLocked
	}
	return paths[0], nil
}

func unlock(conn *dbus.Conn, objects []dbus.ObjectPath) ([]dbus.ObjectPath, error) {
	var unlocked []dbus.ObjectPath
	var prompt dbus.ObjectPath
	err := conn.Object(busName, servicePath).
		Call(serviceIface+".Unlock", 0, objects).
		Store(&unlocked, &prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to unlock: %w", err)
	}
	return unlocked, nil
}

func openSession(conn *dbus.Conn) (dbus.ObjectPath, error) {
	var output dbus.Variant
	var session dbus.ObjectPath
	err := conn.Object(busName, servicePath).
		Call(serviceIface+".OpenSession", 0, "plain", dbus.MakeVariant("")).
		Store(&output, &session)
	if err != nil {
		return "", fmt.Errorf("failed to open secret service session: %w", err)
	}
	return session, nil
}

func closeSession(conn *dbus.Conn, session dbus.ObjectPath) {
	conn.Object(busName, session).Call(sessionIface+".Close", 0)
}
