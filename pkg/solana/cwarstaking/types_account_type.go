package cwarstaking

type AccountType uint8

const (
	AccountTypeUnknown AccountType = iota
	_
	AccountTypePool
	AccountTypeUser
)

func (t AccountType) String() string {
	switch t {
	case AccountTypePool:
		return "pool"
	case AccountTypeUser:
		return "user"
	}
	return "unknown"
}
