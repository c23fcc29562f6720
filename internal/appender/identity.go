package appender

import (
	"net"
	"os"
	"time"
)

// unknownIdentity is used for any value that cannot be resolved.
const unknownIdentity = "unknown"

// Identity is the process-wide host identity attached to every point.
// Resolve it once at startup and pass it to New.
type Identity struct {
	HostName  string
	HostIP    string
	StartTime time.Time
}

// ResolveIdentity looks up the host name and its first address and records
// the current time as the process start time.
func ResolveIdentity() Identity {
	return resolveIdentity(os.Hostname, net.LookupHost, time.Now())
}

func resolveIdentity(hostname func() (string, error), lookup func(string) ([]string, error), start time.Time) Identity {
	id := Identity{
		HostName:  unknownIdentity,
		HostIP:    unknownIdentity,
		StartTime: start,
	}

	name, err := hostname()
	if err != nil || name == "" {
		return id
	}
	id.HostName = name

	addrs, err := lookup(name)
	if err != nil || len(addrs) == 0 {
		return id
	}
	id.HostIP = addrs[0]

	return id
}
