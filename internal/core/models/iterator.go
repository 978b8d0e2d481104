package models

// Iterator is a pull-style iterator over a finite collection.
// Next advances the cursor and must be called before the first Item.
// Close releases resources held by the iterator; it is safe to call twice.
type Iterator[T any] interface {
	Next() bool
	Item() T
	Error() error
	Close() error
	ToSlice() []T
	Count() int
}
