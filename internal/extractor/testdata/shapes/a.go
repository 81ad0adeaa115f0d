package shapes

//unitgen:derive
type ExampleEnum interface {
	String() string
	isExampleEnum()
}

type A struct{}

func (A) isExampleEnum() {}

type B uint8

func (B) isExampleEnum() {}

//unitgen:derive bitflags,serialize
type ExampleNamedStruct struct {
	a uint8
	b, _ uint8
	c    string
	Base
}

type Base struct{}

//unitgen:derive bitflags
type ExampleUnnamedStruct [3]uint8

//unitgen:derive
type ExampleUnitStruct struct{}

type notAnnotated struct{ x int }

type (
	//unitgen:derive plain,name=ModeTag
	Mode [0x2]bool
)

//unitgen:derive
type Raw map[string]int
