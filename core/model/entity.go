package model

// Kind identifies which variant of TimedEntity a value is.
type Kind int

const (
	KindOption Kind = iota
	KindFixed
	KindExclusion
)

func (k Kind) String() string {
	switch k {
	case KindOption:
		return "option"
	case KindFixed:
		return "fixed"
	case KindExclusion:
		return "exclusion"
	default:
		return "unknown"
	}
}

// TimedEntity is anything that occupies calendar time. The set of
// implementations is closed to this package.
type TimedEntity interface {
	Windows() []TimeWindow
	Label() string
	Kind() Kind
	timed()
}

// Option is one candidate for a slot group, e.g. a course section.
type Option struct {
	ID     string       `json:"id" yaml:"id"`
	Slot   int          `json:"slot,omitempty" yaml:"slot,omitempty"`
	Title  string       `json:"title,omitempty" yaml:"title,omitempty"`
	Online bool         `json:"online,omitempty" yaml:"online,omitempty"`
	Times  []TimeWindow `json:"times,omitempty" yaml:"times,omitempty"`
}

// Windows returns the meeting times; online options occupy no time.
func (o Option) Windows() []TimeWindow {
	if o.Online {
		return nil
	}
	return o.Times
}

// Label is the identifier shown in conflict messages.
func (o Option) Label() string {
	if o.ID != "" {
		return o.ID
	}
	return o.Title
}

func (Option) Kind() Kind { return KindOption }
func (Option) timed()     {}

// FixedItem is a commitment present in every generated schedule.
type FixedItem struct {
	ID    string       `json:"id,omitempty" yaml:"id,omitempty"`
	Title string       `json:"title" yaml:"title"`
	Times []TimeWindow `json:"times,omitempty" yaml:"times,omitempty"`
}

func (f FixedItem) Windows() []TimeWindow { return f.Times }

// Label prefers the title, which is what users name their commitments by.
func (f FixedItem) Label() string {
	if f.Title != "" {
		return f.Title
	}
	return f.ID
}

func (FixedItem) Kind() Kind { return KindFixed }
func (FixedItem) timed()     {}

// ExclusionWindow blocks time. It has no identity and is never part of a result.
type ExclusionWindow struct {
	Times []TimeWindow `json:"times" yaml:"times"`
}

func (e ExclusionWindow) Windows() []TimeWindow { return e.Times }
func (ExclusionWindow) Label() string           { return "" }
func (ExclusionWindow) Kind() Kind              { return KindExclusion }
func (ExclusionWindow) timed()                  {}

// SlotGroup lists mutually exclusive options for one requirement.
type SlotGroup struct {
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Options []Option `json:"options" yaml:"options"`
}

// Combination holds one option per slot group, in group order.
type Combination []Option

// IDs returns the option identifiers in order.
func (c Combination) IDs() []string {
	ids := make([]string, len(c))
	for i, o := range c {
		ids[i] = o.ID
	}
	return ids
}

// Schedule is a combination with the fixed items appended for presentation.
type Schedule struct {
	Options Combination `json:"options"`
	Fixed   []FixedItem `json:"fixed,omitempty"`
}

// NewSchedule appends fixed to c. Neither slice is modified.
func NewSchedule(c Combination, fixed []FixedItem) Schedule {
	s := Schedule{Options: c}
	if len(fixed) > 0 {
		s.Fixed = append([]FixedItem(nil), fixed...)
	}
	return s
}

// Entities lists the options followed by the fixed items.
func (s Schedule) Entities() []TimedEntity {
	out := make([]TimedEntity, 0, len(s.Options)+len(s.Fixed))
	for _, o := range s.Options {
		out = append(out, o)
	}
	for _, f := range s.Fixed {
		out = append(out, f)
	}
	return out
}
