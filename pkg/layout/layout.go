package layout

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"sort"

	"github.com/fadedpez/pokerscribe/internal/types"
)

// FieldID names a semantic UI field on the table overlay
type FieldID string

// Per-seat fields
const (
	Name   FieldID = "name"
	Stack  FieldID = "stack"
	Action FieldID = "action"
	Cards  FieldID = "cards"
	Flag   FieldID = "flag"
)

// Table-wide fields
const (
	Pot        FieldID = "pot"
	Blinds     FieldID = "blinds"
	Community  FieldID = "community"
	HandNumber FieldID = "hand_number"
	Dealer     FieldID = "dealer"
)

// SeatFields lists every field a configured seat must define
var SeatFields = []FieldID{Name, Stack, Action, Cards, Flag}

// TableFields lists every table-wide field a layout must define
var TableFields = []FieldID{Pot, Blinds, Community, HandNumber, Dealer}

// IsSeatField reports whether the field belongs to a seat
func (f FieldID) IsSeatField() bool {
	for _, s := range SeatFields {
		if s == f {
			return true
		}
	}
	return false
}

// FieldKey addresses one region. Seat is 0 for table-wide fields.
type FieldKey struct {
	Seat  int
	Field FieldID
}

// SeatKey builds the key of a per-seat field
func SeatKey(seat int, field FieldID) FieldKey {
	return FieldKey{Seat: seat, Field: field}
}

// TableKey builds the key of a table-wide field
func TableKey(field FieldID) FieldKey {
	return FieldKey{Field: field}
}

func (k FieldKey) String() string {
	if k.Seat == 0 {
		return string(k.Field)
	}
	return fmt.Sprintf("player_%d.%s", k.Seat, k.Field)
}

// Rect is a rectangle in frame-relative coordinates, each in [0,1]
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Resolve converts the rectangle to pixels for a frame of the given size.
// Coordinates are truncated and the result is clipped to the frame.
func (r Rect) Resolve(width, height int) image.Rectangle {
	x := int(r.X * float64(width))
	y := int(r.Y * float64(height))
	w := int(r.W * float64(width))
	h := int(r.H * float64(height))
	return image.Rect(x, y, x+w, y+h).Intersect(image.Rect(0, 0, width, height))
}

func (r Rect) valid() bool {
	return r.X >= 0 && r.Y >= 0 && r.W > 0 && r.H > 0 && r.X+r.W <= 1 && r.Y+r.H <= 1
}

// RegionLayout maps field keys to fractional rectangles. It is not modified
// after construction.
type RegionLayout struct {
	seats   []int
	regions map[FieldKey]Rect
}

// New builds a layout from per-seat and table-wide region tables and
// validates it.
func New(seats map[int]map[FieldID]Rect, table map[FieldID]Rect) (*RegionLayout, error) {
	l := &RegionLayout{regions: make(map[FieldKey]Rect)}
	for seat, fields := range seats {
		l.seats = append(l.seats, seat)
		for field, r := range fields {
			l.regions[SeatKey(seat, field)] = r
		}
	}
	sort.Ints(l.seats)
	for field, r := range table {
		l.regions[TableKey(field)] = r
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate checks the layout is complete and every rectangle is in range
func (l *RegionLayout) Validate() error {
	if len(l.seats) == 0 {
		return types.NewError(types.ErrInvalidLayout, "layout defines no seats")
	}
	for _, seat := range l.seats {
		if seat < 1 {
			return types.NewError(types.ErrInvalidLayout, fmt.Sprintf("seat numbers start at 1, got %d", seat))
		}
		for _, field := range SeatFields {
			if err := l.check(SeatKey(seat, field)); err != nil {
				return err
			}
		}
	}
	for _, field := range TableFields {
		if err := l.check(TableKey(field)); err != nil {
			return err
		}
	}
	for key := range l.regions {
		if key.Seat != 0 && !key.Field.IsSeatField() {
			return types.NewError(types.ErrInvalidLayout, fmt.Sprintf("unknown seat field %s", key))
		}
		if key.Seat == 0 && key.Field.IsSeatField() {
			return types.NewError(types.ErrInvalidLayout, fmt.Sprintf("seat field %s has no seat", key.Field))
		}
	}
	return nil
}

func (l *RegionLayout) check(key FieldKey) error {
	r, ok := l.regions[key]
	if !ok {
		return types.NewError(types.ErrInvalidLayout, fmt.Sprintf("missing region %s", key))
	}
	if !r.valid() {
		return types.NewError(types.ErrInvalidLayout, fmt.Sprintf("region %s out of range: %+v", key, r))
	}
	return nil
}

// Seats returns the configured seat numbers in ascending order
func (l *RegionLayout) Seats() []int {
	out := make([]int, len(l.seats))
	copy(out, l.seats)
	return out
}

// Region returns the rectangle for a key
func (l *RegionLayout) Region(key FieldKey) (Rect, bool) {
	r, ok := l.regions[key]
	return r, ok
}

// Resolve returns the pixel rectangle of a key for a frame of the given size
func (l *RegionLayout) Resolve(key FieldKey, width, height int) (image.Rectangle, error) {
	r, ok := l.regions[key]
	if !ok {
		return image.Rectangle{}, types.NewError(types.ErrInvalidLayout, fmt.Sprintf("no region for %s", key))
	}
	return r.Resolve(width, height), nil
}

// Default returns the 3-seat Spin & Go layout. Seat 1 is the bottom (hero)
// position, seat 2 top left, seat 3 top right.
func Default() *RegionLayout {
	seat := func(x, y float64) map[FieldID]Rect {
		return map[FieldID]Rect{
			Name:   {x, y, 0.20, 0.05},
			Stack:  {x, y + 0.05, 0.20, 0.04},
			Cards:  {x + 0.02, y + 0.10, 0.16, 0.08},
			Action: {x, y + 0.15, 0.20, 0.04},
			Flag:   {x - 0.02, y, 0.03, 0.03},
		}
	}
	hero := map[FieldID]Rect{
		Name:   {0.40, 0.85, 0.20, 0.05},
		Stack:  {0.40, 0.80, 0.20, 0.04},
		Cards:  {0.42, 0.70, 0.16, 0.08},
		Action: {0.40, 0.75, 0.20, 0.04},
		Flag:   {0.38, 0.85, 0.03, 0.03},
	}
	l, err := New(
		map[int]map[FieldID]Rect{
			1: hero,
			2: seat(0.15, 0.15),
			3: seat(0.65, 0.15),
		},
		map[FieldID]Rect{
			Pot:        {0.45, 0.45, 0.10, 0.04},
			Community:  {0.35, 0.40, 0.30, 0.08},
			Blinds:     {0.45, 0.05, 0.10, 0.04},
			HandNumber: {0.02, 0.02, 0.15, 0.03},
			Dealer:     {0.50, 0.50, 0.05, 0.05},
		},
	)
	if err != nil {
		panic(err)
	}
	return l
}

// file is the JSON shape of a layout override
type file struct {
	Seats map[string]map[FieldID]Rect `json:"seats"`
	Table map[FieldID]Rect            `json:"table"`
}

// LoadFile reads a layout from a JSON file of the form
// {"seats": {"1": {"name": {...}, ...}}, "table": {"pot": {...}, ...}}
func LoadFile(path string) (*RegionLayout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.ErrConfiguration, "failed to read layout file", err)
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, types.WrapError(types.ErrInvalidLayout, "failed to parse layout file", err)
	}
	seats := make(map[int]map[FieldID]Rect, len(f.Seats))
	for k, fields := range f.Seats {
		var n int
		if _, err := fmt.Sscanf(k, "%d", &n); err != nil {
			return nil, types.WrapError(types.ErrInvalidLayout, fmt.Sprintf("invalid seat number %q", k), err)
		}
		seats[n] = fields
	}
	return New(seats, f.Table)
}
