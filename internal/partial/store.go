package partial

import "git.home.luguber.info/inful/docpartials/internal/foundation/errors"

// Store holds the descriptors of one build in registration order.
type Store struct {
	descriptors []*Descriptor
	byID        map[string]*Descriptor
}

// NewStore creates a descriptor for every config. Unique ids never repeat
// within a store.
func NewStore(configs []Config) (*Store, error) {
	s := &Store{
		descriptors: make([]*Descriptor, 0, len(configs)),
		byID:        make(map[string]*Descriptor, len(configs)),
	}
	for _, cfg := range configs {
		if err := s.Add(cfg); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add registers a new descriptor at the end of the store.
func (s *Store) Add(cfg Config) error {
	d, err := New(cfg)
	if err != nil {
		return err
	}
	if _, dup := s.byID[d.uniqueID]; dup {
		return errors.InternalError("partial unique id collision").WithPartial(d.path, d.uniqueID).Build()
	}
	d.order = len(s.descriptors)
	s.descriptors = append(s.descriptors, d)
	s.byID[d.uniqueID] = d
	return nil
}

// All returns the descriptors in registration order.
func (s *Store) All() []*Descriptor {
	out := make([]*Descriptor, len(s.descriptors))
	copy(out, s.descriptors)
	return out
}

// Lookup finds a descriptor by unique id.
func (s *Store) Lookup(id string) (*Descriptor, bool) {
	d, ok := s.byID[id]
	return d, ok
}

// Len returns the number of descriptors.
func (s *Store) Len() int { return len(s.descriptors) }
