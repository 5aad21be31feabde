package model

// InstanceState is the lifecycle label EC2 reports for an instance.
type InstanceState string

const (
	StatePending      InstanceState = "pending"
	StateRunning      InstanceState = "running"
	StateShuttingDown InstanceState = "shutting-down"
	StateTerminated   InstanceState = "terminated"
	StateStopping     InstanceState = "stopping"
	StateStopped      InstanceState = "stopped"
	StateUnknown      InstanceState = "unknown"
)

// NameTag is the tag key used to address instances by a human-readable name.
const NameTag = "Name"

// Instance is the descriptor produced by a single lookup. It is never cached:
// the public address may change between a lookup before and after a start.
type Instance struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	IP    string        `json:"ip,omitempty"`
	State InstanceState `json:"state"`
}

func (i Instance) HasPublicIP() bool {
	return i.IP != ""
}

// InstanceRecord is one instance as returned by an inventory query.
type InstanceRecord struct {
	ID       string
	Tags     map[string]string
	State    InstanceState
	PublicIP string
}

// Name returns the value of the Name tag, or "" when the tag is absent.
func (r InstanceRecord) Name() string {
	return r.Tags[NameTag]
}

// Reservation groups instances launched together.
type Reservation struct {
	ID        string
	Instances []InstanceRecord
}

// HostEntry is the ssh_config view of one destination alias.
type HostEntry struct {
	Alias        string `json:"alias"`
	HostName     string `json:"host_name,omitempty"`
	User         string `json:"user,omitempty"`
	Port         int    `json:"port,omitempty"`
	IdentityFile string `json:"identity_file,omitempty"`
	ProxyJump    string `json:"proxy_jump,omitempty"`
}
