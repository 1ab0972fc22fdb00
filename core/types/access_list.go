package types

// AccessList is a list of address-slot pairs accessed by a transaction.
type AccessList []AccessTuple

// AccessTuple is a single address and its accessed storage slots.
type AccessTuple struct {
	Address     Address `json:"address"`
	StorageKeys []Hash  `json:"storageKeys"`
}

// StorageKeys returns the total number of storage keys in the list.
func (al AccessList) StorageKeys() int {
	n := 0
	for _, tuple := range al {
		n += len(tuple.StorageKeys)
	}
	return n
}
