package layout

// Key names a data bag entry.
type Key string

// Well-known data bag keys.
const (
	// KeyWinner holds the *team.Team that won the rotation; NoTeam is a draw.
	KeyWinner Key = "winner"
	// KeyTickets holds []scoring.Standing at the end of the rotation.
	KeyTickets Key = "tickets"
)

// DataBag is the match-scoped key/value store phases use to hand results
// forward. Phases never run concurrently, so it has no lock; it is only
// touched from the game loop.
type DataBag struct {
	values map[Key]any
}

// NewDataBag creates an empty bag.
func NewDataBag() *DataBag {
	return &DataBag{values: make(map[Key]any)}
}

// Set stores v under k.
func (b *DataBag) Set(k Key, v any) { b.values[k] = v }

// Get returns the raw value under k.
func (b *DataBag) Get(k Key) (any, bool) {
	v, ok := b.values[k]
	return v, ok
}

// Has reports whether k is set.
func (b *DataBag) Has(k Key) bool {
	_, ok := b.values[k]
	return ok
}

// Delete removes k.
func (b *DataBag) Delete(k Key) { delete(b.values, k) }

// Len returns the number of entries.
func (b *DataBag) Len() int { return len(b.values) }

// Lookup returns the value under k if it is set and has type T.
func Lookup[T any](b *DataBag, k Key) (T, bool) {
	v, ok := b.values[k]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
