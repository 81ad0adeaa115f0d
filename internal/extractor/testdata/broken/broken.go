package broken

//unitgen:derive
type Open interface {
	Name() string
}

//unitgen:derive wide
type Typo struct{ a int }

//unitgen:derive
type Generic[T any] struct{ v T }

const n = 4

//unitgen:derive
type Sized [n]int

//unitgen:derive
type Fine struct{ a int }
