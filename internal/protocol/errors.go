package protocol

const (
	ErrBadRequest      = "E_BAD_REQUEST"
	ErrUnknownContract = "E_UNKNOWN_CONTRACT"
	ErrUnknownItem     = "E_UNKNOWN_ITEM"
	ErrNoEnergy        = "E_NO_ENERGY"
	ErrNoMoney         = "E_NO_MONEY"
	ErrAlreadyOwned    = "E_ALREADY_OWNED"
	ErrInternal        = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadRequest:      {},
	ErrUnknownContract: {},
	ErrUnknownItem:     {},
	ErrNoEnergy:        {},
	ErrNoMoney:         {},
	ErrAlreadyOwned:    {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
