package a

//unitgen:derive
type Shape interface{ isShape() } // want `Shape has no generated companion ShapeUnit; run unitgen generate`

type Circle struct{ R float64 }

type Square struct{ S float64 }

func (Circle) isShape() {}

func (*Square) isShape() {}

//unitgen:derive serialize
type Point struct{ X, Y int }

//unitgen:derive bitflags
type Wide [129]bool // want `capacity exceeded in Wide: 129 tags do not fit in a 128-bit flag set`

//unitgen:derive
type Dup struct { // want `duplicate tag in Dup: "foo_bar" and "fooBar" both derive tag "FooBar"`
	foo_bar int
	fooBar  int
}

//unitgen:derive
type Raw map[string]int // want `unsupported shape in Raw: untagged unions are not supported \(map type has no tag layout\)`

//unitgen:derive wide
type Typo struct{ a int } // want `invalid definition in Typo: malformed //unitgen:derive directive`

//unitgen:derive name=Bad-Name
type Renamed struct{ a int } // want `invalid definition in Renamed: malformed //unitgen:derive directive`

//unitgen:derive
type Series struct{ Name, Values int } // want `duplicate tag in Series: "Values" derives member SeriesUnitValues, which collides with the member listing`

//unitgen:derive
type Open interface{ Name() string } // want `invalid definition in Open: interface has no unexported marker method`

//unitgen:derive
type Empty struct{}

type notAnnotated map[int]int
