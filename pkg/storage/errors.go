package storage

type storageError string

const (
	ErrNotFound          = storageError("not found")
	ErrInsufficientFunds = storageError("insufficient points balance")
)

func (e storageError) Error() string {
	return string(e)
}
