package board

// HotelLevel is the building level of a property carrying a hotel.
const HotelLevel = 5

// PropertyRent computes the rent for a color property at a building level
// (0-4 houses, HotelLevel for a hotel). Unimproved rent doubles when the
// owner holds the whole unmortgaged group.
func PropertyRent(space Space, level int, monopoly bool) int {
	if space.Kind != KindProperty || len(space.Rent) == 0 {
		return 0
	}
	if level < 0 {
		level = 0
	}
	if level > HotelLevel {
		level = HotelLevel
	}
	rent := space.Rent[level]
	if level == 0 && monopoly {
		rent *= 2
	}
	return rent
}

// RailroadRent returns 25, 50, 100 or 200 for one to four owned railroads.
func RailroadRent(owned int) int {
	if owned <= 0 {
		return 0
	}
	return 25 << (owned - 1)
}

// UtilityRent multiplies the dice total by 4 with one utility owned, 10 with both.
func UtilityRent(owned, diceTotal int) int {
	switch {
	case owned <= 0:
		return 0
	case owned == 1:
		return diceTotal * 4
	default:
		return diceTotal * 10
	}
}

// BuildingValue is the amount invested in buildings at a level. A hotel
// represents four houses plus the hotel itself.
func BuildingValue(space Space, level int) int {
	return level * space.HouseCost
}
