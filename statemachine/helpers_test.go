package statemachine

// lamp is a minimal subject for tests inside the package.
type lamp struct {
	Current string
	Broken  bool
	Lit     int
}

func (l *lamp) State() string {
	return l.Current
}

func (l *lamp) SetState(state string) {
	l.Current = state
}

func (l *lamp) Working() bool {
	return !l.Broken
}

func (l *lamp) Light() {
	l.Lit++
}

var lampTable = Table[string, string]{
	"on": {
		{Origins: []string{"off"}, Destination: "on", Conditions: []CapabilityName{"Working"}, Effects: []CapabilityName{"Light"}},
		{Origins: []string{"off"}, Destination: "flicker"},
	},
	"off": One(Transition[string]{Origins: []string{"on", "flicker"}, Destination: "off"}),
}
