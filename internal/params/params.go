package params

const (
	SecParam = 256
	SecBytes = SecParam / 8

	// HashBytes is the length of a transcript digest produced by hash.Hash.Sum.
	HashBytes = 2 * SecBytes

	// MaxParties bounds the size of a session, so that identifiers fit in a party.ID.
	MaxParties = 1<<16 - 1
)
