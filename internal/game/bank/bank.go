package bank

import "fmt"

// Default building inventory of the classic game.
const (
	DefaultHouses = 32
	DefaultHotels = 12
)

// Bank holds the finite supply of houses and hotels. Cash held by the bank
// is unlimited and not tracked here.
type Bank struct {
	Houses int
	Hotels int
}

// New returns a bank stocked with the given limits.
func New(houses, hotels int) *Bank {
	return &Bank{Houses: houses, Hotels: hotels}
}

// TakeHouses issues n houses from the bank.
func (b *Bank) TakeHouses(n int) error {
	if n > b.Houses {
		return fmt.Errorf("bank has %d houses, %d requested", b.Houses, n)
	}
	b.Houses -= n
	return nil
}

// ReturnHouses puts n houses back into the bank.
func (b *Bank) ReturnHouses(n int) {
	b.Houses += n
}

// TakeHotel issues one hotel from the bank.
func (b *Bank) TakeHotel() error {
	if b.Hotels < 1 {
		return fmt.Errorf("bank has no hotels left")
	}
	b.Hotels--
	return nil
}

// ReturnHotel puts one hotel back into the bank.
func (b *Bank) ReturnHotel() {
	b.Hotels++
}

// Clone returns a copy of the inventory.
func (b *Bank) Clone() *Bank {
	c := *b
	return &c
}
