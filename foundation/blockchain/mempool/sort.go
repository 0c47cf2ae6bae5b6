package mempool

// byFee provides sorting support by the fee an entry pays.
type byFee []Entry

// Len returns the number of entries in the list.
func (bf byFee) Len() int {
	return len(bf)
}

// Less helps to sort the list by fee in ascending order so the best paying
// transactions sit at the end.
func (bf byFee) Less(i, j int) bool {
	return bf[i].Fee < bf[j].Fee
}

// Swap moves entries in the order of the fee value.
func (bf byFee) Swap(i, j int) {
	bf[i], bf[j] = bf[j], bf[i]
}
