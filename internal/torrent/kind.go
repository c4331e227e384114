package torrent

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"torex/internal/naming"
	"torex/internal/services"
)

// Kind describes how torrents of one category label are handled.
type Kind interface {
	// Label is the lowercase category label.
	Label() string
	// CommonTitle extracts the canonical title from a release name.
	CommonTitle(release string) (string, error)
	// Extensions lists the member extensions extracted by default.
	Extensions() []string
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Kind{}
)

func init() {
	Register(TV{})
}

// Register adds k to the registry, replacing any kind with the same label.
func Register(k Kind) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(k.Label())] = k
}

// Lookup returns the kind registered for label, ignoring case.
func Lookup(label string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(label))
	registryMu.RLock()
	k, ok := registry[key]
	registryMu.RUnlock()
	if !ok {
		return nil, services.Wrap(
			services.ErrUnsupportedTorrent,
			"torrent",
			"lookup kind",
			fmt.Sprintf("label %q is not supported (known: %s)", label, strings.Join(Labels(), ", ")),
			nil,
		)
	}
	return k, nil
}

// Labels returns the registered labels in sorted order.
func Labels() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	labels := make([]string, 0, len(registry))
	for label := range registry {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// TV handles episodic releases named Title.SxxEyy.
type TV struct{}

func (TV) Label() string { return "tv" }

func (TV) CommonTitle(release string) (string, error) {
	return naming.ResolveTitle(release)
}

func (TV) Extensions() []string { return []string{".mkv"} }
