// Package config provides driver property handling
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ajitpratap0/conduit/pkg/errors"
)

// Well-known property keys understood by every driver. Credentials
// configured on the Config are injected under these keys at build time
// unless the property map already carries them.
const (
	PropUser           = "user"
	PropPassword       = "password"
	PropConnectTimeout = "connect_timeout"
)

// Properties is an arbitrary key-value mapping passed through to the
// driver when establishing connections.
type Properties map[string]string

// ParseProperties parses a semicolon-delimited property string of the
// form "key1=value1;key2=value2;key3" into a Properties map. A key
// without '=' maps to the empty string, duplicate keys overwrite
// earlier ones, and empty segments are skipped. A segment with an
// empty key fails with a config error.
func ParseProperties(s string) (Properties, error) {
	props := make(Properties)
	for _, entry := range strings.Split(s, ";") {
		if len(entry) == 0 {
			continue
		}
		key, value, found := strings.Cut(entry, "=")
		if found && key == "" {
			return nil, errors.New(errors.ErrorTypeConfig,
				fmt.Sprintf("property entry %q has an empty key", entry))
		}
		props[key] = value
	}
	return props, nil
}

// Clone returns a copy of the properties
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	clone := make(Properties, len(p))
	for k, v := range p {
		clone[k] = v
	}
	return clone
}

// Merge copies entries from other into p. Existing keys in p win, so
// explicit properties always take precedence over injected defaults.
func (p Properties) Merge(other Properties) {
	for k, v := range other {
		if _, ok := p[k]; !ok {
			p[k] = v
		}
	}
}

// String renders the properties in stable key order with the password
// value redacted, suitable for logging.
func (p Properties) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte('=')
		if k == PropPassword {
			b.WriteString("****")
		} else {
			b.WriteString(p[k])
		}
	}
	return b.String()
}
