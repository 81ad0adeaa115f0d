package shapes

type C struct {
	ID   string
	Rest []byte
}

func (*C) isExampleEnum() {}

func (C) String() string { return "C" }
