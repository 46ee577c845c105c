package behavior

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"

	"github.com/dshills/humane/internal/engine/pool"
	"github.com/dshills/humane/internal/engine/span"
)

// Errors returned by behavior registration and lookup.
var (
	// ErrDuplicateBehavior is returned when a name is registered twice.
	ErrDuplicateBehavior = errors.New("behavior already registered")

	// ErrUnknownBehavior is returned for names that were never registered.
	ErrUnknownBehavior = errors.New("unknown behavior")

	// ErrInvalidHandler is returned for handlers that cannot be slotted.
	ErrInvalidHandler = errors.New("invalid handler")
)

// definition is the registered template for a named action.
type definition struct {
	slots      [NumKinds]Handler
	generation int
	storage    []any
}

// Store holds the action and behavior pools and one behavior id per
// character position.
type Store struct {
	actions   *pool.Pool[Action, Action]
	behaviors *pool.Pool[Behavior, string]
	ids       []BehaviorID
	defs      map[string]*definition
}

// NewStore creates an empty store. The given handlers form the default
// action, which becomes action 0 and the sole member of behavior 0.
func NewStore(defaults ...Handler) (*Store, error) {
	slots, err := slotHandlers(defaults)
	if err != nil {
		return nil, err
	}
	s := &Store{
		actions:   pool.New(actionKey),
		behaviors: pool.New(behaviorKey),
		defs:      map[string]*definition{"": {slots: slots, storage: []any{nil}}},
	}
	a := s.actions.Intern(Action{Slots: slots})
	s.behaviors.Intern(Behavior{a})
	return s, nil
}

// Register declares a named action. Registering a name twice is a
// configuration error.
func (s *Store) Register(name string, handlers ...Handler) error {
	if name == "" {
		return fmt.Errorf("%w: empty behavior name", ErrInvalidHandler)
	}
	if _, ok := s.defs[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateBehavior, name)
	}
	slots, err := slotHandlers(handlers)
	if err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}
	s.defs[name] = &definition{slots: slots, storage: []any{nil}}
	return nil
}

// MustRegister is like Register but panics on error.
func (s *Store) MustRegister(name string, handlers ...Handler) {
	if err := s.Register(name, handlers...); err != nil {
		panic(err)
	}
}

// Registered reports whether name has been registered.
func (s *Store) Registered(name string) bool {
	_, ok := s.defs[name]
	return ok && name != ""
}

// Names returns the registered behavior names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.defs))
	for name := range s.defs {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Action returns the id of the current occurrence of the named action.
func (s *Store) Action(name string) (ActionID, error) {
	def, ok := s.defs[name]
	if !ok || name == "" {
		return 0, fmt.Errorf("%w: %q", ErrUnknownBehavior, name)
	}
	return s.actions.Intern(Action{Name: name, Generation: def.generation, Slots: def.slots}), nil
}

// Equivalents returns the ids of every occurrence of the named action that
// has been interned so far, oldest first.
func (s *Store) Equivalents(name string) []ActionID {
	def, ok := s.defs[name]
	if !ok {
		return nil
	}
	var ids []ActionID
	for gen := 0; gen <= def.generation; gen++ {
		if id, ok := s.actions.Lookup(Action{Name: name, Generation: gen, Slots: def.slots}); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// ActionValue returns the action for id.
func (s *Store) ActionValue(id ActionID) Action {
	return s.actions.Value(id)
}

// Behavior returns a copy of the behavior for id.
func (s *Store) Behavior(id BehaviorID) Behavior {
	return slices.Clone(s.behaviors.Value(id))
}

// InternBehavior returns the id of b.
func (s *Store) InternBehavior(b Behavior) BehaviorID {
	return s.behaviors.Intern(slices.Clone(b))
}

// SetStorage attaches v to the next occurrence of the named action.
// Positions that already carry the action keep their old storage; ranges
// the action is added to afterwards see v.
func (s *Store) SetStorage(name string, v any) error {
	def, ok := s.defs[name]
	if !ok || name == "" {
		return fmt.Errorf("%w: %q", ErrUnknownBehavior, name)
	}
	def.storage = append(def.storage, v)
	def.generation = len(def.storage) - 1
	return nil
}

// Storage returns the storage of the named action occurring at pos.
func (s *Store) Storage(name string, pos int) (any, bool) {
	if !s.valid(pos) {
		return nil, false
	}
	def, ok := s.defs[name]
	if !ok {
		return nil, false
	}
	for _, aid := range s.behaviors.Value(s.ids[pos]) {
		a := s.actions.Value(aid)
		if a.Name != name {
			continue
		}
		if a.Generation < len(def.storage) && def.storage[a.Generation] != nil {
			return def.storage[a.Generation], true
		}
		return nil, false
	}
	return nil, false
}

// AddActionInRange pushes action a onto the front of the behavior of
// every position in [start, end]. Positions outside the store are skipped.
func (s *Store) AddActionInRange(a ActionID, start, end int) {
	s.actions.Value(a)
	start, end = s.clamp(start, end)
	for pos := start; pos <= end; pos++ {
		old := s.behaviors.Value(s.ids[pos])
		merged := make(Behavior, 0, len(old)+1)
		merged = append(merged, a)
		merged = append(merged, old...)
		s.ids[pos] = s.behaviors.Intern(merged)
	}
}

// RemoveActionInRange removes the first occurrence of a from the behavior
// of every position in [start, end]. Positions without a are unchanged.
func (s *Store) RemoveActionInRange(a ActionID, start, end int) {
	s.RemoveActionsInRange([]ActionID{a}, start, end)
}

// RemoveActionsInRange removes the first occurrence of each id in set.
func (s *Store) RemoveActionsInRange(set []ActionID, start, end int) {
	start, end = s.clamp(start, end)
	for pos := start; pos <= end; pos++ {
		b := s.Behavior(s.ids[pos])
		changed := false
		for _, a := range set {
			if i := slices.Index(b, a); i >= 0 {
				b = slices.Delete(b, i, i+1)
				changed = true
			}
		}
		if changed {
			s.ids[pos] = s.behaviors.Intern(b)
		}
	}
}

// BehaviorHasAction reports whether behavior id includes a handler of the
// named behavior. Default handlers never match.
func (s *Store) BehaviorHasAction(id BehaviorID, name string) bool {
	for _, aid := range s.behaviors.Value(id) {
		for _, h := range s.actions.Value(aid).Slots {
			if n, ok := h.(Named); ok && n.BehaviorName() == name {
				return true
			}
		}
	}
	return false
}

// HasAction reports whether the named behavior is active at pos.
func (s *Store) HasAction(name string, pos int) bool {
	return s.valid(pos) && s.BehaviorHasAction(s.ids[pos], name)
}

// FindActionExtent returns the maximal run of positions around pos that
// carry the named behavior. It reports false when pos does not.
func (s *Store) FindActionExtent(name string, pos int) (span.Span, bool) {
	if !s.HasAction(name, pos) {
		return span.None, false
	}
	start := pos
	for s.HasAction(name, start-1) {
		start--
	}
	end := pos
	for s.HasAction(name, end+1) {
		end++
	}
	return span.Span{Start: start, End: end}, true
}

// FirstActionInRange returns the first position in [start, end] that
// carries the named behavior.
func (s *Store) FirstActionInRange(name string, start, end int) (int, bool) {
	start, end = s.clamp(start, end)
	for pos := start; pos <= end; pos++ {
		if s.BehaviorHasAction(s.ids[pos], name) {
			return pos, true
		}
	}
	return -1, false
}

// HandlersOf returns the non-nil handlers of kind k in behavior id,
// highest priority first.
func (s *Store) HandlersOf(id BehaviorID, k Kind) []Handler {
	var hs []Handler
	for _, aid := range s.behaviors.Value(id) {
		if h := s.actions.Value(aid).Slots[k]; h != nil {
			hs = append(hs, h)
		}
	}
	return hs
}

// HandlersAt returns the handlers of kind k at pos. Positions outside the
// store, such as the insertion point after the last character, use the
// default behavior.
func (s *Store) HandlersAt(pos int, k Kind) []Handler {
	return s.HandlersOf(s.At(pos), k)
}

// DeletableRanges partitions [start, end] into maximal runs whose delete
// handlers all leave the stop bit clear.
func (s *Store) DeletableRanges(start, end int) []span.Span {
	return s.unblockedRanges(Delete, start, end)
}

// StyleableRanges partitions [start, end] into maximal runs whose style
// handlers all leave the stop bit clear.
func (s *Store) StyleableRanges(start, end int) []span.Span {
	return s.unblockedRanges(Style, start, end)
}

func (s *Store) unblockedRanges(k Kind, start, end int) []span.Span {
	start, end = s.clamp(start, end)
	var ranges []span.Span
	runStart := -1
	for pos := start; pos <= end; pos++ {
		if s.overrides(s.ids[pos], k) {
			if runStart >= 0 {
				ranges = append(ranges, span.Span{Start: runStart, End: pos - 1})
				runStart = -1
			}
			continue
		}
		if runStart < 0 {
			runStart = pos
		}
	}
	if runStart >= 0 {
		ranges = append(ranges, span.Span{Start: runStart, End: end})
	}
	return ranges
}

func (s *Store) overrides(id BehaviorID, k Kind) bool {
	for _, h := range s.HandlersOf(id, k) {
		if h.StopBit() {
			return true
		}
	}
	return false
}

// Len returns the number of positions.
func (s *Store) Len() int {
	return len(s.ids)
}

// At returns the behavior id at pos, or the default behavior outside the store.
func (s *Store) At(pos int) BehaviorID {
	if !s.valid(pos) {
		return DefaultBehavior
	}
	return s.ids[pos]
}

// Insert adds n positions with the default behavior at pos.
func (s *Store) Insert(pos, n int) {
	if n <= 0 {
		return
	}
	s.ids = slices.Insert(s.ids, s.insertPos(pos), slices.Repeat([]BehaviorID{DefaultBehavior}, n)...)
}

// InsertIDs adds the given behavior ids at pos.
func (s *Store) InsertIDs(pos int, ids []BehaviorID) {
	for _, id := range ids {
		s.behaviors.Value(id)
	}
	s.ids = slices.Insert(s.ids, s.insertPos(pos), ids...)
}

// Delete removes [start, end], clamped.
func (s *Store) Delete(start, end int) {
	start, end = s.clamp(start, end)
	if end < start {
		return
	}
	s.ids = slices.Delete(s.ids, start, end+1)
}

// Slice returns a copy of the behavior ids in [start, end], clamped.
func (s *Store) Slice(start, end int) []BehaviorID {
	start, end = s.clamp(start, end)
	if end < start {
		return nil
	}
	return slices.Clone(s.ids[start : end+1])
}

// Replace overwrites behavior ids starting at pos.
func (s *Store) Replace(pos int, ids []BehaviorID) {
	for i, id := range ids {
		if s.valid(pos + i) {
			s.ids[pos+i] = id
		}
	}
}

// IDs returns a copy of the whole sequence.
func (s *Store) IDs() []BehaviorID {
	return slices.Clone(s.ids)
}

// Pools is the persisted form of the action and behavior pools.
type Pools struct {
	Actions   []ActionRef `json:"actions"`
	Behaviors []Behavior  `json:"behaviors"`
}

// Pools returns the current pools for persistence.
func (s *Store) Pools() Pools {
	actions := s.actions.Values()
	refs := make([]ActionRef, len(actions))
	for i, a := range actions {
		refs[i] = ActionRef{Name: a.Name, Generation: a.Generation}
	}
	return Pools{Actions: refs, Behaviors: s.behaviors.Values()}
}

// Restore replaces the pools and the per-position sequence. Action names
// are resolved against the registered behaviors, so every behavior used by
// the saved document must be registered before loading.
func (s *Store) Restore(p Pools, ids []BehaviorID) error {
	actions := make([]Action, len(p.Actions))
	for i, ref := range p.Actions {
		def, ok := s.defs[ref.Name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownBehavior, ref.Name)
		}
		if ref.Generation < 0 {
			return fmt.Errorf("action %d: negative generation", i)
		}
		for def.generation < ref.Generation {
			def.storage = append(def.storage, nil)
			def.generation++
		}
		actions[i] = Action{Name: ref.Name, Generation: ref.Generation, Slots: def.slots}
	}
	if len(actions) == 0 || len(p.Behaviors) == 0 {
		return errors.New("behavior pools are empty")
	}
	for i, b := range p.Behaviors {
		for _, aid := range b {
			if aid < 0 || int(aid) >= len(actions) {
				return fmt.Errorf("behavior %d refers to action %d outside pool of %d", i, aid, len(actions))
			}
		}
	}
	for i, id := range ids {
		if id < 0 || int(id) >= len(p.Behaviors) {
			return fmt.Errorf("behavior id %d at position %d outside pool of %d", id, i, len(p.Behaviors))
		}
	}

	s.actions.Restore(actions)
	s.behaviors.Restore(p.Behaviors)
	s.ids = slices.Clone(ids)
	return nil
}

func (s *Store) valid(pos int) bool {
	return pos >= 0 && pos < len(s.ids)
}

func (s *Store) insertPos(pos int) int {
	if pos < 0 || pos > len(s.ids) {
		return len(s.ids)
	}
	return pos
}

func (s *Store) clamp(start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > len(s.ids)-1 {
		end = len(s.ids) - 1
	}
	return start, end
}

func slotHandlers(handlers []Handler) ([NumKinds]Handler, error) {
	var slots [NumKinds]Handler
	for _, h := range handlers {
		if h == nil {
			continue
		}
		k := h.Kind()
		if k < 0 || k >= NumKinds {
			return slots, fmt.Errorf("%w: %T has kind %v", ErrInvalidHandler, h, k)
		}
		if slots[k] != nil {
			return slots, fmt.Errorf("%w: two %v handlers", ErrInvalidHandler, k)
		}
		if !reflect.TypeOf(h).Comparable() {
			return slots, fmt.Errorf("%w: %T is not comparable", ErrInvalidHandler, h)
		}
		slots[k] = h
	}
	return slots, nil
}
