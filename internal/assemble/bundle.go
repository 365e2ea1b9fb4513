package assemble

// Metadata describes the entry node of a bundle.
type Metadata struct {
	Type       string `json:"type"`
	Specialist string `json:"specialist,omitempty"`
	Title      string `json:"title"`
}

// Bundle is the assembled context for one request.
type Bundle struct {
	Entry    string
	Workflow string
	// Nodes are resolved ids, dependencies first, entry closure before workflow closure.
	Nodes []string
	// Files maps node id to the raw text of its document.
	Files map[string]string
	// External maps a final filename component to loaded text; ExternalOrder
	// holds the keys in first-load order.
	External      map[string]string
	ExternalOrder []string
	Metadata      Metadata

	SkippedOptional []string // optional references not selected
	Unresolved      []string // required references that matched no node
	MissingExternal []string // required externals that could not be loaded
}

func newBundle(entry, workflow string) *Bundle {
	return &Bundle{
		Entry:    entry,
		Workflow: workflow,
		Nodes:    []string{},
		Files:    make(map[string]string),
		External: make(map[string]string),
	}
}

// addExternal stores text under name. A second reference with the same
// filename overwrites the first but keeps its position.
func (b *Bundle) addExternal(name, text string) {
	if _, exists := b.External[name]; !exists {
		b.ExternalOrder = append(b.ExternalOrder, name)
	}
	b.External[name] = text
}

// Summary is the machine-readable projection of a bundle.
type Summary struct {
	Entry    string   `json:"entry"`
	Workflow *string  `json:"workflow"`
	Nodes    []string `json:"nodes"`
	Metadata Metadata `json:"metadata"`
}

// Summary returns the id/metadata projection of b.
func (b *Bundle) Summary() Summary {
	s := Summary{Entry: b.Entry, Nodes: b.Nodes, Metadata: b.Metadata}
	if b.Workflow != "" {
		wf := b.Workflow
		s.Workflow = &wf
	}
	return s
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
