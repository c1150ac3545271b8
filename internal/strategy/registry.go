package strategy

import (
	"sort"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// Registry mantiene las estrategias cargadas indexadas por nombre,
// conservando el orden de registro.
type Registry struct {
	byName map[string]Strategy
	order  []string
}

// NewRegistry crea un registry con las estrategias dadas.
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{byName: make(map[string]Strategy)}
	for _, s := range strategies {
		r.Register(s)
	}
	return r
}

// Register añade o reemplaza una estrategia.
func (r *Registry) Register(s Strategy) {
	if _, exists := r.byName[s.Name]; !exists {
		r.order = append(r.order, s.Name)
	}
	r.byName[s.Name] = s
}

// Get devuelve la estrategia por nombre.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// Names devuelve los nombres ordenados alfabéticamente.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// All devuelve las estrategias en orden de registro.
func (r *Registry) All() []Strategy {
	out := make([]Strategy, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// ForSport devuelve las estrategias aplicables a un deporte, en orden de registro.
func (r *Registry) ForSport(sport domain.Sport) []Strategy {
	var out []Strategy
	for _, name := range r.order {
		if s := r.byName[name]; s.AppliesTo(sport) {
			out = append(out, s)
		}
	}
	return out
}

// Len devuelve cuántas estrategias hay registradas.
func (r *Registry) Len() int {
	return len(r.order)
}
