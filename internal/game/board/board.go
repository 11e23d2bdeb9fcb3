package board

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
)

// Size is the number of spaces around the board.
const Size = 40

const (
	GoPosition       = 0
	JailPosition     = 10
	GoToJailPosition = 30
)

// SpaceKind tags the behaviour of a space when a token lands on it.
type SpaceKind string

const (
	KindGo             SpaceKind = "GO"
	KindProperty       SpaceKind = "PROPERTY"
	KindRailroad       SpaceKind = "RAILROAD"
	KindUtility        SpaceKind = "UTILITY"
	KindTax            SpaceKind = "TAX"
	KindChance         SpaceKind = "CHANCE"
	KindCommunityChest SpaceKind = "COMMUNITY_CHEST"
	KindJail           SpaceKind = "JAIL"
	KindGoToJail       SpaceKind = "GO_TO_JAIL"
	KindFreeParking    SpaceKind = "FREE_PARKING"
)

// Purchasable reports whether spaces of this kind can be owned.
func (k SpaceKind) Purchasable() bool {
	return k == KindProperty || k == KindRailroad || k == KindUtility
}

// Color identifies a color group.
type Color string

const (
	ColorBrown     Color = "BROWN"
	ColorLightBlue Color = "LIGHT_BLUE"
	ColorPink      Color = "PINK"
	ColorOrange    Color = "ORANGE"
	ColorRed       Color = "RED"
	ColorYellow    Color = "YELLOW"
	ColorGreen     Color = "GREEN"
	ColorDarkBlue  Color = "DARK_BLUE"
)

// Space is one immutable square of the board.
type Space struct {
	Position  int       `json:"position"`
	Name      string    `json:"name"`
	Kind      SpaceKind `json:"kind"`
	Group     Color     `json:"group,omitempty"`
	Price     int       `json:"price,omitempty"`
	Rent      []int     `json:"rent,omitempty"` // base, 1-4 houses, hotel
	HouseCost int       `json:"house_cost,omitempty"`
	Mortgage  int       `json:"mortgage,omitempty"`
	Tax       int       `json:"tax,omitempty"`
}

// Board is the static lookup table of spaces. It is never mutated after New.
type Board struct {
	spaces     [Size]Space
	groups     map[Color][]int
	groupOrder []Color
	railroads  []int
	utilities  []int
}

//go:embed standard.json
var standardData []byte

var standard *Board

func init() {
	b, err := New(standardData)
	if err != nil {
		panic(fmt.Sprintf("board: invalid embedded layout: %v", err))
	}
	standard = b
}

// Standard returns the shared classic board.
func Standard() *Board {
	return standard
}

// New decodes a JSON space table and validates the board layout.
func New(data []byte) (*Board, error) {
	var spaces []Space
	if err := json.Unmarshal(data, &spaces); err != nil {
		return nil, fmt.Errorf("failed to decode spaces: %w", err)
	}
	if len(spaces) != Size {
		return nil, fmt.Errorf("expected %d spaces, got %d", Size, len(spaces))
	}

	b := &Board{groups: make(map[Color][]int)}
	for i, space := range spaces {
		if space.Position != i {
			return nil, fmt.Errorf("space %q at index %d has position %d", space.Name, i, space.Position)
		}
		switch space.Kind {
		case KindProperty:
			if space.Group == "" {
				return nil, fmt.Errorf("property %q has no color group", space.Name)
			}
			if len(space.Rent) != 6 {
				return nil, fmt.Errorf("property %q needs 6 rent entries, got %d", space.Name, len(space.Rent))
			}
			if _, seen := b.groups[space.Group]; !seen {
				b.groupOrder = append(b.groupOrder, space.Group)
			}
			b.groups[space.Group] = append(b.groups[space.Group], i)
		case KindRailroad:
			b.railroads = append(b.railroads, i)
		case KindUtility:
			b.utilities = append(b.utilities, i)
		case KindGo, KindTax, KindChance, KindCommunityChest, KindJail, KindGoToJail, KindFreeParking:
		default:
			return nil, fmt.Errorf("space %q has unknown kind %q", space.Name, space.Kind)
		}
		if space.Kind.Purchasable() && (space.Price <= 0 || space.Mortgage <= 0) {
			return nil, fmt.Errorf("space %q must carry a price and mortgage value", space.Name)
		}
		b.spaces[i] = space
	}

	if len(b.groups) != 8 {
		return nil, fmt.Errorf("expected 8 color groups, got %d", len(b.groups))
	}
	for color, members := range b.groups {
		if len(members) < 2 || len(members) > 3 {
			return nil, fmt.Errorf("color group %s has %d members", color, len(members))
		}
	}
	if len(b.railroads) != 4 {
		return nil, fmt.Errorf("expected 4 railroads, got %d", len(b.railroads))
	}
	if len(b.utilities) != 2 {
		return nil, fmt.Errorf("expected 2 utilities, got %d", len(b.utilities))
	}
	if b.spaces[JailPosition].Kind != KindJail || b.spaces[GoToJailPosition].Kind != KindGoToJail {
		return nil, fmt.Errorf("jail spaces must sit at %d and %d", JailPosition, GoToJailPosition)
	}
	return b, nil
}

// Space returns the space at a position, wrapping around the board.
func (b *Board) Space(position int) Space {
	return b.spaces[((position%Size)+Size)%Size]
}

// Spaces returns a copy of every space in position order.
func (b *Board) Spaces() []Space {
	out := make([]Space, Size)
	copy(out, b.spaces[:])
	return out
}

// Purchasable returns every ownable position in ascending order.
func (b *Board) Purchasable() []int {
	out := make([]int, 0, 28)
	for _, space := range b.spaces {
		if space.Kind.Purchasable() {
			out = append(out, space.Position)
		}
	}
	return out
}

// Group returns the member positions of a color group.
func (b *Board) Group(color Color) []int {
	return append([]int(nil), b.groups[color]...)
}

// Groups returns the color groups in board order.
func (b *Board) Groups() []Color {
	return append([]Color(nil), b.groupOrder...)
}

// Railroads returns railroad positions in ascending order.
func (b *Board) Railroads() []int {
	return append([]int(nil), b.railroads...)
}

// Utilities returns utility positions in ascending order.
func (b *Board) Utilities() []int {
	return append([]int(nil), b.utilities...)
}

// Nearest finds the first space of kind strictly ahead of position, wrapping past GO.
func (b *Board) Nearest(position int, kind SpaceKind) int {
	var candidates []int
	switch kind {
	case KindRailroad:
		candidates = b.railroads
	case KindUtility:
		candidates = b.utilities
	default:
		for _, space := range b.spaces {
			if space.Kind == kind {
				candidates = append(candidates, space.Position)
			}
		}
		sort.Ints(candidates)
	}
	if len(candidates) == 0 {
		return position
	}
	for _, candidate := range candidates {
		if candidate > position {
			return candidate
		}
	}
	return candidates[0]
}

// Distance counts the steps forward from one position to another.
func Distance(from, to int) int {
	return ((to-from)%Size + Size) % Size
}
