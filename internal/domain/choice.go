package domain

// Choice is a tagged optional selection: either nothing was chosen or a
// value was. The zero value is Unselected.
type Choice[T any] struct {
	value    T
	selected bool
}

// Unselected returns an empty choice.
func Unselected[T any]() Choice[T] { return Choice[T]{} }

// Selected wraps a chosen value.
func Selected[T any](v T) Choice[T] { return Choice[T]{value: v, selected: true} }

// SelectedPtr selects *v when v is non-nil.
func SelectedPtr[T any](v *T) Choice[T] {
	if v == nil {
		return Unselected[T]()
	}
	return Selected(*v)
}

// Get returns the value and whether one was selected.
func (c Choice[T]) Get() (T, bool) { return c.value, c.selected }

// IsSelected reports whether a value was chosen.
func (c Choice[T]) IsSelected() bool { return c.selected }

// OrZero returns the value or the zero T.
func (c Choice[T]) OrZero() T { return c.value }

type agskKind uint8

const (
	agskNone agskKind = iota
	agskPriceList
	agskCode
)

// AgskChoice is the construction-code selection: nothing, the price-list
// option (no code but the requirement is satisfied), or a real code.
type AgskChoice struct {
	kind agskKind
	agsk Agsk
}

func NoAgsk() AgskChoice { return AgskChoice{} }
func PriceListAgsk() AgskChoice { return AgskChoice{kind: agskPriceList} }
func AgskCode(a Agsk) AgskChoice { return AgskChoice{kind: agskCode, agsk: a} }
func (c AgskChoice) IsPriceList() bool { return c.kind == agskPriceList }

// Satisfied reports whether the construction-code requirement is met.
func (c AgskChoice) Satisfied() bool { return c.kind != agskNone }

// Code returns the selected code, if a real one was chosen.
func (c AgskChoice) Code() (Agsk, bool) { return c.agsk, c.kind == agskCode }

// WireCode is the value sent as agsk_id: nil for nothing or price list.
func (c AgskChoice) WireCode() *string {
	if c.kind != agskCode {
		return nil
	}
	code := c.agsk.Code
	return &code
}
