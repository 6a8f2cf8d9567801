package netconfig

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/maxpoletaev/canzero/frame"
	"github.com/maxpoletaev/canzero/internal/multierror"
)

// ConfigHashEntry is the object entry every node exposes its configuration
// fingerprint through.
const ConfigHashEntry = "config_hash"

const maxObjectEntryID = 1<<13 - 1

// Network is a loaded description of the CAN network.
type Network struct {
	Buses   []Bus   `yaml:"buses"`
	GetReq  Message `yaml:"get_req"`
	GetResp Message `yaml:"get_resp"`
	Nodes   []Node  `yaml:"nodes"`
}

type Bus struct {
	Name     string `yaml:"name"`
	ID       uint32 `yaml:"id"`
	Baudrate uint32 `yaml:"baudrate"`
}

type Message struct {
	ID       uint32 `yaml:"id"`
	Extended bool   `yaml:"ide"`
	Bus      string `yaml:"bus"`
	DLC      uint8  `yaml:"dlc"`
}

func (m Message) MessageID() frame.MessageID {
	return frame.MessageID{ID: m.ID, Extended: m.Extended}
}

type Node struct {
	Name          string        `yaml:"name"`
	ID            uint8         `yaml:"id"`
	ObjectEntries []ObjectEntry `yaml:"object_entries"`
}

// ObjectEntry returns the object entry with the given name.
func (n Node) ObjectEntry(name string) (ObjectEntry, bool) {
	for _, oe := range n.ObjectEntries {
		if oe.Name == name {
			return oe, true
		}
	}

	return ObjectEntry{}, false
}

type ObjectEntry struct {
	Name string `yaml:"name"`
	ID   uint16 `yaml:"id"`
	Type string `yaml:"type"`
}

// Load reads and validates the network description at path.
func Load(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read network config: %w", err)
	}

	network, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return network, nil
}

func Parse(data []byte) (*Network, error) {
	network := &Network{}

	if err := yaml.Unmarshal(data, network); err != nil {
		return nil, fmt.Errorf("failed to parse network config: %w", err)
	}

	if err := network.Validate(); err != nil {
		return nil, err
	}

	return network, nil
}

// BusID returns the numeric id of the bus with the given name.
func (n *Network) BusID(name string) (uint32, bool) {
	for _, bus := range n.Buses {
		if bus.Name == name {
			return bus.ID, true
		}
	}

	return 0, false
}

// Validate checks the references between buses, messages and nodes. All
// problems are reported at once, keyed by their location in the file.
func (n *Network) Validate() error {
	errs := multierror.New[string]()

	busNames := make(map[string]bool, len(n.Buses))
	for i, bus := range n.Buses {
		if busNames[bus.Name] {
			errs.Add(fmt.Sprintf("buses[%d]", i), fmt.Errorf("duplicate bus name %q", bus.Name))
		}

		busNames[bus.Name] = true
	}

	for key, msg := range map[string]Message{"get_req": n.GetReq, "get_resp": n.GetResp} {
		if !msg.MessageID().Valid() {
			errs.Add(key, fmt.Errorf("message id %d out of range", msg.ID))
		}

		if !busNames[msg.Bus] {
			errs.Add(key, fmt.Errorf("unknown bus %q", msg.Bus))
		}
	}

	if n.GetReq.MessageID() == n.GetResp.MessageID() {
		errs.Add("get_resp", errors.New("same message id as get_req"))
	}

	var (
		nodeIDs   = make(map[uint8]bool, len(n.Nodes))
		nodeNames = make(map[string]bool, len(n.Nodes))
	)

	for i, node := range n.Nodes {
		key := fmt.Sprintf("nodes[%d]", i)

		if nodeIDs[node.ID] {
			errs.Add(key+".id", fmt.Errorf("duplicate node id %d", node.ID))
		}

		if nodeNames[node.Name] {
			errs.Add(key+".name", fmt.Errorf("duplicate node name %q", node.Name))
		}

		nodeIDs[node.ID] = true
		nodeNames[node.Name] = true

		for j, oe := range node.ObjectEntries {
			if oe.ID > maxObjectEntryID {
				errs.Add(fmt.Sprintf("%s.object_entries[%d]", key, j), fmt.Errorf("object entry id %d out of range", oe.ID))
			}
		}

		if _, ok := node.ObjectEntry(ConfigHashEntry); !ok {
			errs.Add(key+".object_entries", fmt.Errorf("node %q has no %s object entry", node.Name, ConfigHashEntry))
		}
	}

	return errs.Combined()
}
