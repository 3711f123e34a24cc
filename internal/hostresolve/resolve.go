// Package hostresolve implements host resolution and configuration
// synthesis: given a user-supplied alias and a hosts document, it
// deduces which machine is local, which is remote, and computes the
// path map and shared set each agent needs.
package hostresolve

import (
	"fmt"
	"net"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sosgo/hostcore/internal/errors"
	"github.com/sosgo/hostcore/internal/hostconfig"
	"github.com/sosgo/hostcore/internal/logger"
	"github.com/sosgo/hostcore/internal/pathmap"
)

// Resolution is the outcome of resolving an alias against a document:
// both ends of the host pair, fully resolved.
type Resolution struct {
	Local  hostconfig.ResolvedHost
	Remote hostconfig.ResolvedHost
}

// Resolve computes a Resolution for alias against doc, using
// DetectLocalAlias (os.Hostname and net.InterfaceAddrs) to determine
// the local machine's own identity.
func Resolve(doc *hostconfig.Document, alias string, log logger.Logger) (*Resolution, error) {
	if log == nil {
		log = logger.Noop()
	}

	localKey, localHost, err := resolveLocalHost(doc)
	if err != nil {
		return nil, err
	}

	detected := DetectLocalAlias(doc)
	if localKey == "localhost" {
		if h, ok := doc.Hosts[detected]; ok {
			log.Debug("host resolve: upgrading local host from literal localhost to detected entry %q", detected)
			localKey, localHost = detected, h
		}
	}

	remoteKey, remoteHost, err := resolveRemoteHost(doc, alias, localKey, log)
	if err != nil {
		return nil, err
	}

	if localKey == remoteKey && localKey != detected {
		if _, ok := doc.Hosts[detected]; !ok {
			log.Debug("host resolve: cloning local host config under detected key %q for bastion-style addressing", detected)
			remoteKey, remoteHost = detected, localHost
		}
	}

	sameHost := remoteKey == localKey || remoteHost.Address == "" || remoteHost.Address == "localhost"

	var pathMap []hostconfig.PathMapEntry
	var shared []string

	if sameHost {
		shared = []string{"/"}
	} else {
		pathMap, shared, err = intersect(localHost, remoteHost, log)
		if err != nil {
			return nil, err
		}
	}

	localResolved := hostconfig.ResolvedHost{
		Alias:               localKey,
		Address:             "localhost",
		StatusCheckInterval: 2 * time.Second,
	}

	remoteResolved, err := standardize(remoteKey, remoteHost, localHost, pathMap, shared)
	if err != nil {
		return nil, err
	}

	return &Resolution{Local: localResolved, Remote: remoteResolved}, nil
}

// DetectLocalAlias returns the hosts-document key that names the
// current machine, per the matching rules in section 4.5: an exact
// key match, a matching hostname entry, a matching first label, or a
// matching address (after stripping any "user@" prefix). If nothing
// matches, the machine's own hostname's first label is returned.
func DetectLocalAlias(doc *hostconfig.Document) string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	firstLabel := strings.SplitN(hostname, ".", 2)[0]

	addrs := localAddresses()

	keys := sortedKeys(doc.Hosts)
	for _, k := range keys {
		h := doc.Hosts[k]
		if k == hostname {
			return k
		}
		if h.Hostname != "" && h.Hostname == hostname {
			return k
		}
		if h.Hostname != "" && strings.SplitN(h.Hostname, ".", 2)[0] == firstLabel {
			return k
		}
		addr := strings.TrimPrefix(h.Address, stripUserPrefix(h.Address))
		for _, a := range addrs {
			if addr == a || h.Address == a {
				return k
			}
		}
	}
	return firstLabel
}

func stripUserPrefix(addr string) string {
	if idx := strings.Index(addr, "@"); idx >= 0 {
		return addr[:idx+1]
	}
	return ""
}

func localAddresses() []string {
	var out []string
	ifaceAddrs, err := net.InterfaceAddrs()
	if err != nil {
		return out
	}
	for _, a := range ifaceAddrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil || ip.IsLoopback() {
			continue
		}
		out = append(out, ip.String())
	}
	return out
}

func resolveLocalHost(doc *hostconfig.Document) (string, hostconfig.Host, error) {
	if doc.Localhost != "" {
		h, ok := doc.Hosts[doc.Localhost]
		if !ok {
			return "", hostconfig.Host{}, errors.New(errors.ErrConfig,
				fmt.Sprintf("top-level localhost key %q does not reference a defined host", doc.Localhost), "")
		}
		return doc.Localhost, h, nil
	}
	return "localhost", hostconfig.Host{Address: "localhost"}, nil
}

func resolveRemoteHost(doc *hostconfig.Document, alias, localKey string, log logger.Logger) (string, hostconfig.Host, error) {
	if alias == "" || alias == "localhost" {
		h, _ := doc.Hosts[localKey]
		return localKey, h, nil
	}
	if h, ok := doc.Hosts[alias]; ok {
		return alias, h, nil
	}
	log.Debug("host resolve: %q is not a defined host, treating as an ad-hoc address", alias)
	return alias, hostconfig.Host{Address: alias}, nil
}

// intersect builds path_map and shared by intersecting the local and
// remote hosts' shared and paths sections, per section 4.5 step 5.
func intersect(local, remote hostconfig.Host, log logger.Logger) ([]hostconfig.PathMapEntry, []string, error) {
	var pathMap []hostconfig.PathMapEntry
	var shared []string

	for _, k := range sortedStringKeys(local.Shared) {
		lv, lok := local.Shared[k]
		rv, rok := remote.Shared[k]
		if !lok {
			continue
		}
		if !rok {
			log.Debug("host resolve: shared key %q present on local only", k)
			continue
		}
		shared = append(shared, lv)
		pathMap = append(pathMap, hostconfig.PathMapEntry{LocalPrefix: lv, RemotePrefix: rv})
	}

	for _, k := range sortedStringKeys(local.Paths) {
		lv, lok := local.Paths[k]
		rv, rok := remote.Paths[k]
		if !lok {
			continue
		}
		if !rok {
			log.Debug("host resolve: paths key %q present on local only", k)
			continue
		}
		pathMap = append(pathMap, hostconfig.PathMapEntry{LocalPrefix: lv, RemotePrefix: rv})
	}

	literal, err := pathmap.ParseLiterals(remote.PathMapLiteral)
	if err != nil {
		return nil, nil, err
	}
	pathMap = append(pathMap, literal...)
	for k, v := range remote.PathMapDirect {
		pathMap = append(pathMap, hostconfig.PathMapEntry{LocalPrefix: k, RemotePrefix: v})
	}

	return pathMap, shared, nil
}

func standardize(alias string, h, local hostconfig.Host, pathMap []hostconfig.PathMapEntry, shared []string) (hostconfig.ResolvedHost, error) {
	pemFile, err := selectPEM(local, h, alias)
	if err != nil {
		return hostconfig.ResolvedHost{}, err
	}

	maxMem, err := parseBytes(h.MaxMem)
	if err != nil {
		return hostconfig.ResolvedHost{}, errors.New(errors.ErrConfig, fmt.Sprintf("host %q: invalid max_mem %q: %v", alias, h.MaxMem, err), "")
	}

	maxWalltime, err := parseWalltime(h.MaxWalltime)
	if err != nil {
		return hostconfig.ResolvedHost{}, errors.New(errors.ErrConfig, fmt.Sprintf("host %q: invalid max_walltime %q: %v", alias, h.MaxWalltime, err), "")
	}

	statusInterval := 2 * time.Second
	if h.StatusCheckInterval > 0 {
		statusInterval = time.Duration(h.StatusCheckInterval) * time.Second
	}

	return hostconfig.ResolvedHost{
		Alias:               alias,
		Address:             h.Address,
		Port:                h.Port,
		PEMFile:             pemFile,
		PathMap:             pathMap,
		Shared:              shared,
		MaxMem:              maxMem,
		MaxCores:            h.MaxCores,
		MaxWalltime:         maxWalltime,
		QueueType:           h.QueueType,
		StatusCheckInterval: statusInterval,
	}, nil
}

// selectPEM implements step 6: a pem_file mapping on the local entry,
// keyed by remote alias, picks the remote's key (a missing key is a
// ConfigError); otherwise the remote entry's plain pem_file is used
// as-is.
func selectPEM(local, remote hostconfig.Host, alias string) (string, error) {
	if local.PEMFileByAlias != nil {
		pem, ok := local.PEMFileByAlias[alias]
		if !ok {
			return "", errors.New(errors.ErrConfig,
				fmt.Sprintf("pem_file mapping has no entry for %q", alias), "")
		}
		return pem, nil
	}
	return remote.PEMFile, nil
}

func parseBytes(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return parseSizeString(s)
}

func parseWalltime(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return 0, err
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}

func sortedKeys(m map[string]hostconfig.Host) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
