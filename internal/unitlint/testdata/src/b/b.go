package b

//unitgen:derive
type Shape interface{ isShape() }

type Circle struct{}

func (Circle) isShape() {}

//unitgen:derive
type Big [129]bool // want `capacity exceeded in Big`

//unitgen:derive plain
type Plain [129]bool
