// Package hostconfig defines the nested configuration document that
// describes a set of hosts, their path maps, and their resource limits.
package hostconfig

import "time"

// CurrentDocumentVersion is the schema version for the hosts document.
const CurrentDocumentVersion = 1

// Document is the top-level hosts configuration file.
type Document struct {
	Version   int             `yaml:"version" mapstructure:"version"`
	Localhost string          `yaml:"localhost,omitempty" mapstructure:"localhost"`
	Hosts     map[string]Host `yaml:"hosts" mapstructure:"hosts"`
}

// Host is one entry in the hosts document: a machine plus how to reach
// it, what of its filesystem is shared with others, and what of it
// should be translated via the path map.
type Host struct {
	// Address is a hostname or IP. The literal "localhost" denotes
	// in-process execution.
	Address string `yaml:"address" mapstructure:"address"`

	// Hostname, when set, is matched (whole and by first label) against
	// the local machine's own hostname during local-host detection;
	// when unset, detection uses only the entry key and Address.
	Hostname string `yaml:"hostname,omitempty" mapstructure:"hostname"`

	Port int `yaml:"port,omitempty" mapstructure:"port"`

	// PEMFile is either a plain path or, when the host entry is the
	// local entry, a mapping keyed by remote alias (PEMFileByAlias).
	PEMFile        string            `yaml:"pem_file,omitempty" mapstructure:"pem_file"`
	PEMFileByAlias map[string]string `yaml:"-" mapstructure:"-"`

	// Shared is a named set of local path prefixes accessible with
	// identical semantics on the remote host.
	Shared map[string]string `yaml:"shared,omitempty" mapstructure:"shared"`

	// Paths is a named set of local path prefixes used to build the
	// path map by intersection against a peer host's Paths.
	Paths map[string]string `yaml:"paths,omitempty" mapstructure:"paths"`

	// PathMap is an ordered sequence of "from -> to" literals, or a
	// direct mapping, applied in addition to the Paths intersection.
	PathMapLiteral []string          `yaml:"path_map,omitempty" mapstructure:"path_map"`
	PathMapDirect  map[string]string `yaml:"-" mapstructure:"-"`

	QueueType string `yaml:"queue_type,omitempty" mapstructure:"queue_type"`

	MaxMem      string `yaml:"max_mem,omitempty" mapstructure:"max_mem"`
	MaxCores    int    `yaml:"max_cores,omitempty" mapstructure:"max_cores"`
	MaxWalltime string `yaml:"max_walltime,omitempty" mapstructure:"max_walltime"`

	// StatusCheckInterval in seconds; the local agent defaults to a
	// small value (2s) when unset.
	StatusCheckInterval int `yaml:"status_check_interval,omitempty" mapstructure:"status_check_interval"`
}

// PathMapEntry is one resolved (local_prefix, remote_prefix) pair.
// Prefixes are normalized to end with the path separator.
type PathMapEntry struct {
	LocalPrefix  string
	RemotePrefix string
}

// ResolvedHost is the concrete, already-intersected configuration for
// one end of a host pair, ready to hand to an Agent.
type ResolvedHost struct {
	Alias               string
	Address             string
	Port                int
	PEMFile             string
	PathMap             []PathMapEntry
	Shared              []string
	MaxMem              int64
	MaxCores            int
	MaxWalltime         time.Duration
	QueueType           string
	StatusCheckInterval time.Duration
}

// IsLocal reports whether this resolved host executes in-process.
func (r ResolvedHost) IsLocal() bool {
	return r.Address == "" || r.Address == "localhost"
}

// DefaultDocument returns a Document with sensible defaults.
func DefaultDocument() *Document {
	return &Document{
		Version: CurrentDocumentVersion,
		Hosts:   make(map[string]Host),
	}
}
