package domain

// AddressType classifies an address record.
type AddressType string

const (
	AddressTypeMarketing AddressType = "M"
	AddressTypeBilling   AddressType = "B"
)

// Address is a typed contact address.
type Address struct {
	ID       int64
	Type     AddressType
	Address1 string
	Address2 string
	City     string
	State    string
	Zip      string
	Country  string
	Phone    string
	Fax      string
	IsPoBox  string
}

// EffectiveAddress picks the contact address out of addrs without modifying it.
// It returns the marketing record and true when one exists. Otherwise it returns
// a new marketing record, filled from the billing record if there is one, and false.
func EffectiveAddress(addrs []Address) (Address, bool) {
	var marketing, billing *Address
	for i := range addrs {
		switch addrs[i].Type {
		case AddressTypeMarketing:
			marketing = &addrs[i]
		case AddressTypeBilling:
			billing = &addrs[i]
		}
	}

	if marketing != nil {
		return *marketing, true
	}

	addr := Address{Type: AddressTypeMarketing}
	if billing != nil {
		addr.Address1 = billing.Address1
		addr.Address2 = billing.Address2
		addr.City = billing.City
		addr.Country = billing.Country
		addr.Fax = billing.Fax
		addr.IsPoBox = billing.IsPoBox
		addr.Phone = billing.Phone
		addr.State = billing.State
		addr.Zip = billing.Zip
	}
	return addr, false
}
