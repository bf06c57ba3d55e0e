package statemachine

import (
	"reflect"

	"facette.io/natsort"
)

// Guard gates a transition. It must not mutate the subject.
type Guard[O any] func(subject O) bool

// Effect runs as part of a transition and may mutate the subject.
type Effect[O any] func(subject O, props Props) error

// Capabilities resolves capability names to guards and effects for subjects of type O.
// Guards and effects live in separate namespaces.
type Capabilities[O any] struct {
	guards  map[CapabilityName]Guard[O]
	effects map[CapabilityName]Effect[O]
}

// NewCapabilities creates an empty capability registry.
func NewCapabilities[O any]() *Capabilities[O] {
	return &Capabilities[O]{
		guards:  make(map[CapabilityName]Guard[O]),
		effects: make(map[CapabilityName]Effect[O]),
	}
}

// Guard registers a guard.
func (c *Capabilities[O]) Guard(name CapabilityName, guard Guard[O]) *Capabilities[O] {
	c.guards[name] = guard

	return c
}

// Effect registers an effect.
func (c *Capabilities[O]) Effect(name CapabilityName, effect Effect[O]) *Capabilities[O] {
	c.effects[name] = effect

	return c
}

// Do registers an effect that ignores props and cannot fail.
func (c *Capabilities[O]) Do(name CapabilityName, fn func(subject O)) *Capabilities[O] {
	return c.Effect(name, func(subject O, _ Props) error {
		fn(subject)

		return nil
	})
}

// DoWithProps registers an effect that reads props and cannot fail.
func (c *Capabilities[O]) DoWithProps(name CapabilityName, fn func(subject O, props Props)) *Capabilities[O] {
	return c.Effect(name, func(subject O, props Props) error {
		fn(subject, props)

		return nil
	})
}

// Try registers an effect that ignores props and may fail.
func (c *Capabilities[O]) Try(name CapabilityName, fn func(subject O) error) *Capabilities[O] {
	return c.Effect(name, func(subject O, _ Props) error {
		return fn(subject)
	})
}

// LookupGuard resolves a guard by name.
func (c *Capabilities[O]) LookupGuard(name CapabilityName) (Guard[O], bool) {
	if c == nil {
		return nil, false
	}

	guard, ok := c.guards[name]

	return guard, ok && guard != nil
}

// LookupEffect resolves an effect by name.
func (c *Capabilities[O]) LookupEffect(name CapabilityName) (Effect[O], bool) {
	if c == nil {
		return nil, false
	}

	effect, ok := c.effects[name]

	return effect, ok && effect != nil
}

// GuardNames returns the registered guard names in natural order.
func (c *Capabilities[O]) GuardNames() []string {
	if c == nil {
		return nil
	}

	return sortedNames(c.guards)
}

// EffectNames returns the registered effect names in natural order.
func (c *Capabilities[O]) EffectNames() []string {
	if c == nil {
		return nil
	}

	return sortedNames(c.effects)
}

func sortedNames[V any](m map[CapabilityName]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, string(name))
	}

	natsort.Sort(names)

	return names
}

var (
	boolType  = reflect.TypeFor[bool]()
	errorType = reflect.TypeFor[error]()
	propsType = reflect.TypeFor[Props]()
)

// MethodCapabilities builds a registry from the exported methods of O, keyed by
// method name. Methods shaped func() bool become guards; methods shaped func(),
// func() error, func(Props) or func(Props) error become effects. Anything else
// is ignored.
func MethodCapabilities[O any]() *Capabilities[O] {
	caps := NewCapabilities[O]()
	typ := reflect.TypeFor[O]()

	for i := range typ.NumMethod() {
		method := typ.Method(i)
		if !method.IsExported() {
			continue
		}

		// Method.Type includes the receiver for concrete types but not for interfaces.
		fnType := method.Type
		offset := 1

		if typ.Kind() == reflect.Interface {
			offset = 0
		}

		name := CapabilityName(method.Name)
		methodName := method.Name
		in := fnType.NumIn() - offset

		switch {
		case in == 0 && fnType.NumOut() == 1 && fnType.Out(0) == boolType:
			caps.Guard(name, func(subject O) bool {
				return reflect.ValueOf(subject).MethodByName(methodName).Call(nil)[0].Bool()
			})
		case isEffectShape(fnType, in, offset):
			withProps := in == 1
			caps.Effect(name, func(subject O, props Props) error {
				var args []reflect.Value
				if withProps {
					args = []reflect.Value{reflect.ValueOf(props)}
				}

				out := reflect.ValueOf(subject).MethodByName(methodName).Call(args)
				if len(out) == 0 || out[0].IsNil() {
					return nil
				}

				err, _ := out[0].Interface().(error)

				return err
			})
		}
	}

	return caps
}

func isEffectShape(fnType reflect.Type, in, offset int) bool {
	switch in {
	case 0:
	case 1:
		if fnType.In(offset) != propsType {
			return false
		}
	default:
		return false
	}

	switch fnType.NumOut() {
	case 0:
		return true
	case 1:
		return fnType.Out(0) == errorType
	default:
		return false
	}
}
