package visualizer

// Options configures the visualization output.
type Options struct {
	// ShowConditions appends a candidate's conditions to its edge label
	ShowConditions bool

	// ShowEffects appends a candidate's effects to its edge label
	ShowEffects bool

	// Direction controls diagram flow: "TB", "BT", "LR" or "RL"
	Direction string

	// HighlightPath highlights a specific state path through the diagram
	HighlightPath []string

	// Theme controls the color scheme: "default", "dark", "forest"
	Theme string
}

// DefaultOptions returns sensible defaults for visualization.
func DefaultOptions() Options {
	return Options{
		ShowConditions: true,
		ShowEffects:    true,
		Direction:      "TB",
		Theme:          "default",
	}
}

// WithShowConditions enables/disables transition conditions.
func (o Options) WithShowConditions(show bool) Options {
	o.ShowConditions = show

	return o
}

// WithShowEffects enables/disables transition effects.
func (o Options) WithShowEffects(show bool) Options {
	o.ShowEffects = show

	return o
}

// WithDirection sets the diagram direction.
func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

// WithHighlightPath sets states to highlight.
func (o Options) WithHighlightPath(path []string) Options {
	o.HighlightPath = path

	return o
}

// WithTheme sets the color theme.
func (o Options) WithTheme(theme string) Options {
	o.Theme = theme

	return o
}
